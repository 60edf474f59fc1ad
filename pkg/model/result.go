package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Result is what the Executor produces for one (prover, problem) run.
type Result struct {
	Prover         Prover         `json:"prover"`
	Problem        Problem        `json:"problem"`
	Classification Classification `json:"classification"`
	ErrCode        int            `json:"errcode"`
	Stdout         string         `json:"stdout"`
	Stderr         string         `json:"stderr"`
	RealTime       float64        `json:"real_time"`
	UserTime       float64        `json:"user_time"`
	SysTime        float64        `json:"sys_time"`

	// Fingerprint and CachedAt are not part of the wire Result (the Event.raw
	// has no room for them); they are cache bookkeeping only.
	Fingerprint string    `json:"-"`
	CachedAt    time.Time `json:"-"`
}

// Fingerprint computes the cache key for a (prover, problem, timeout,
// memory) execution: H(prover-descriptor, problem-path + problem-content,
// timeout_s, memory_mb), .
func Fingerprint(prover Prover, problemPath string, problemContent []byte, timeoutS, memoryMB int) string {
	h := sha256.New()
	h.Write([]byte(prover.Fingerprint()))
	h.Write([]byte{0})
	h.Write([]byte(problemPath))
	h.Write([]byte{0})
	h.Write(problemContent)
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(timeoutS)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(memoryMB)))
	return hex.EncodeToString(h.Sum(nil))
}
