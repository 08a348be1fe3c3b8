package constants

import (
	"fmt"
	"time"
)

// Redis key layout for the wizard service.
// Pattern: eventwizard:{module}:{scope}:{identifier}

// ================== KEY PREFIXES ==================

const (
	CACHE_PREFIX = "eventwizard"
)

// ================== DRAFTS MODULE ==================

// Draft slot names, as the browser stored them
const (
	DRAFT_SLOT_CREATE      = "createEventData"
	DRAFT_SLOT_EDIT_PREFIX = "editEventData_"
)

// Draft key prefix: + user-id + ":" + slot
const (
	CACHE_KEY_DRAFTS = CACHE_PREFIX + ":drafts:"
)

// Draft TTLs
const (
	TTL_DRAFT_DEFAULT = 7 * 24 * time.Hour // abandoned drafts expire after a week
)

// ================== RATE LIMIT MODULE ==================

const (
	CACHE_KEY_RATELIMIT = CACHE_PREFIX + ":ratelimit:" // + ip:type
)

// ================== KEY BUILDERS ==================

// BuildCreateDraftKey builds the create-flow slot of a user
func BuildCreateDraftKey(userID string) string {
	return CACHE_KEY_DRAFTS + userID + ":" + DRAFT_SLOT_CREATE
}

// BuildEditDraftKey builds the per-event edit slot of a user
func BuildEditDraftKey(userID, eventID string) string {
	return CACHE_KEY_DRAFTS + userID + ":" + DRAFT_SLOT_EDIT_PREFIX + eventID
}

// BuildRateLimitKey builds the sliding window key of a client and limit class
func BuildRateLimitKey(clientIP, limitType string) string {
	return fmt.Sprintf("%s%s:%s", CACHE_KEY_RATELIMIT, clientIP, limitType)
}
