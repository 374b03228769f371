package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func ParseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// MinutesEnv reads a whole number of minutes, falling back to def when the
// variable is unset or not positive.
func MinutesEnv(key string, def int) time.Duration {
	min := ParseIntDefault(os.Getenv(key), def)
	if min <= 0 {
		min = def
	}
	return time.Duration(min) * time.Minute
}

func DurationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
