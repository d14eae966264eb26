package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamPayloadKey returns the cache key for an exam's student payload
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamAnswerKey returns the cache key for an exam's answer key hash
func (r *CacheKeyStruct) ExamAnswerKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam monitor
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

// SubmissionAnswersKey returns the cache key for a submission's live answer map
func (r *CacheKeyStruct) SubmissionAnswersKey(submissionID string) string {
	return fmt.Sprintf("submission:%s:answers", submissionID)
}

// SubmissionMetaKey returns the cache key for a submission's counters hash
func (r *CacheKeyStruct) SubmissionMetaKey(submissionID string) string {
	return fmt.Sprintf("submission:%s:meta", submissionID)
}

// SubmissionExitDedupKey returns the short-lived key used to collapse
// duplicate focus-loss events inside the configured dedup window
func (r *CacheKeyStruct) SubmissionExitDedupKey(submissionID string) string {
	return fmt.Sprintf("submission:%s:exit_dedup", submissionID)
}

var CacheKey = NewCacheKeyStruct()
