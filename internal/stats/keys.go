package stats

import "strconv"

// Cache keys are a pure function of the query coordinates, so the same
// (chat, period[, user]) always reads and writes the same entry.

func chatStatsKey(chatID int64, period string) string {
	return "stats:chat:" + strconv.FormatInt(chatID, 10) + ":period:" + period
}

func userStatsKey(chatID, tgUserID int64, period string) string {
	return "stats:chat:" + strconv.FormatInt(chatID, 10) +
		":user:" + strconv.FormatInt(tgUserID, 10) + ":period:" + period
}
