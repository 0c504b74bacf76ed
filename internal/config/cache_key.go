package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the cache key for a CBT session payload.
func (r *CacheKeyStruct) SessionKey(token string) string {
	return fmt.Sprintf("cbt:session:%s", token)
}

// StudentSessionKey returns the cache key for the student → session token pointer.
func (r *CacheKeyStruct) StudentSessionKey(studentID string) string {
	return fmt.Sprintf("cbt:session:student:%s", studentID)
}

// PasscodeKey returns the cache key for the active-passcode mirror.
func (r *CacheKeyStruct) PasscodeKey(code string) string {
	return fmt.Sprintf("cbt:passcode:%s", code)
}

// StudentPasscodeKey returns the cache key for the student → passcode pointer.
func (r *CacheKeyStruct) StudentPasscodeKey(studentID string) string {
	return fmt.Sprintf("cbt:passcode:student:%s", studentID)
}

var CacheKey = NewCacheKeyStruct()
