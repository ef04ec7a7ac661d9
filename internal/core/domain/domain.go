// Package domain contains the core data types shared across the bot,
// the stats service and the dashboard.
package domain

import "time"

// User mirrors one chat participant. Created on the first observed
// message, profile fields refreshed on every subsequent one.
type User struct {
	ID        int64     `json:"id"`
	TGUserID  int64     `json:"tgUserId"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is one persisted chat message. Immutable once stored;
// (TGMessageID, ChatID) is unique.
type Message struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	TGMessageID int64     `json:"tgMessageId"`
	ChatID      int64     `json:"chatId"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserIdentity carries the sender fields used for upserting a User.
type UserIdentity struct {
	TGUserID  int64
	Username  string
	FirstName string
	LastName  string
}

// TopUser is one row of the per-chat message-count ranking.
type TopUser struct {
	UserID    int64  `json:"userId"`
	TGUserID  int64  `json:"tgUserId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	Count     int64  `json:"count"`
}

// ChatStats is the aggregate view served by /stats and the dashboard.
type ChatStats struct {
	ChatID        int64     `json:"chatId"`
	Period        string    `json:"period"`
	TotalMessages int64     `json:"totalMessages"`
	TotalUsers    int64     `json:"totalUsers"`
	TopUsers      []TopUser `json:"topUsers"`
	ComputedAt    time.Time `json:"computedAt"`
}

// UserStats is the per-user slice of chat statistics.
type UserStats struct {
	ChatID       int64     `json:"chatId"`
	UserID       int64     `json:"userId"`
	TGUserID     int64     `json:"tgUserId"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	Period       string    `json:"period"`
	MessageCount int64     `json:"messageCount"`
	ComputedAt   time.Time `json:"computedAt"`
}

// UserActivity is one dashboard table row: lifetime counts plus the
// first and last observed message timestamps.
type UserActivity struct {
	UserID       int64      `json:"userId"`
	TGUserID     int64      `json:"tgUserId"`
	Username     string     `json:"username"`
	FirstName    string     `json:"firstName"`
	MessageCount int64      `json:"messageCount"`
	FirstMessage *time.Time `json:"firstMessage"`
	LastMessage  *time.Time `json:"lastMessage"`
}

// DailyCount is one point of the 30-day message-count series.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// Analysis is the ephemeral communication-style profile produced per
// request; it is never persisted. When no input messages exist every
// text field carries the "insufficient data" sentinel.
type Analysis struct {
	Style         string  `json:"style"`
	Topics        string  `json:"topics"`
	Activity      string  `json:"activity"`
	Tone          string  `json:"tone"`
	Traits        string  `json:"traits"`
	MessageCount  int     `json:"messageCount"`
	AvgMessageLen float64 `json:"avgMessageLen"`
	Period        string  `json:"period"`
	Provider      string  `json:"provider"`
}

// Digest is the ephemeral per-chat daily summary. ActionItems is never
// empty: a digest without tasks carries a single sentinel entry.
type Digest struct {
	ChatID       int64    `json:"chatId"`
	Period       string   `json:"period"`
	Summary      string   `json:"summary"`
	ActionItems  []string `json:"actionItems"`
	Topics       string   `json:"topics"`
	MessageCount int      `json:"messageCount"`
	Provider     string   `json:"provider"`
}
