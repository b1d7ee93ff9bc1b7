package app

import (
	"sort"

	"live-quiz-service/internal/domain"
)

// ComputeLeaderboard sums awarded points per participant across every stored
// answer and ranks the roster by total, descending. Ties keep roster (join)
// order. It is recomputed from scratch on every call.
func ComputeLeaderboard(roster []domain.Participant, answers map[string]map[string]domain.AnswerRecord) []domain.LeaderboardEntry {
	totals := make(map[string]int, len(roster))
	for _, byParticipant := range answers {
		for participantID, rec := range byParticipant {
			totals[participantID] += rec.AwardedPoints
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(roster))
	for _, p := range roster {
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Score:         totals[p.ID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// TopN returns a copy of the first n entries; n <= 0 means all of them.
func TopN(entries []domain.LeaderboardEntry, n int) []domain.LeaderboardEntry {
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}
	out := make([]domain.LeaderboardEntry, n)
	copy(out, entries[:n])
	return out
}
