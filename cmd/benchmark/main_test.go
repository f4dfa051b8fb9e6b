package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord(t *testing.T) {
	r := runResult{
		Instance: "spring.json",
		Workers:  4,
		Timeout:  time.Minute,
		Status:   "OPTIMAL",
		Penalty:  1225,
		WallTime: 1512 * time.Millisecond,
	}
	assert.Equal(t, []string{"spring.json", "4", "1m0s", "OPTIMAL", "1225", "1512"}, record(r))
	assert.Len(t, csvHeader, len(record(r)))
}
