// Package views computes the read-side of the tracker: first-win lists,
// leaderboards and descriptive statistics. Everything is a pure function
// over loaded records and safe to recompute per request.
package views

import (
	"sort"

	"arena-tracker/internal/domain"
)

// FirstWinRecords reduces a player's records to one entry per champion:
// the earliest record, by match creation time, with placement 1. The input
// order does not matter. Output is ordered by creation time, oldest first.
func FirstWinRecords(records []domain.MatchRecord) []domain.MatchRecord {
	earliest := make(map[string]domain.MatchRecord)
	for _, rec := range records {
		if !rec.Win() {
			continue
		}
		cur, ok := earliest[rec.Champion]
		if !ok || rec.CreatedAt < cur.CreatedAt {
			earliest[rec.Champion] = rec
		}
	}

	out := make([]domain.MatchRecord, 0, len(earliest))
	for _, rec := range earliest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].Champion < out[j].Champion
	})
	return out
}

// UniqueWins returns the champions a player has won with, ordered by first
// win time.
func UniqueWins(records []domain.MatchRecord) []string {
	firsts := FirstWinRecords(records)
	out := make([]string, len(firsts))
	for i, rec := range firsts {
		out[i] = rec.Champion
	}
	return out
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	PlayerID    string
	DisplayName string
	UniqueWins  int
	TotalGames  int
}

// Leaderboard ranks players by unique champion wins, descending. Ties keep
// the input account order, so callers control the tie-break by passing
// accounts in insertion order.
func Leaderboard(accounts []domain.PlayerAccount, recordsByPlayer map[string][]domain.MatchRecord) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(accounts))
	for _, a := range accounts {
		records := recordsByPlayer[a.PlayerID]
		entries = append(entries, LeaderboardEntry{
			PlayerID:    a.PlayerID,
			DisplayName: a.DisplayName,
			UniqueWins:  len(UniqueWins(records)),
			TotalGames:  len(records),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UniqueWins > entries[j].UniqueWins
	})
	return entries
}

// Extreme is a single-game maximum for one metric and the champion that
// achieved it.
type Extreme struct {
	Value    int
	Champion string
	MatchID  string
}

// PlayerStats is the descriptive summary for one player.
type PlayerStats struct {
	TotalGames int

	// PlacementCounts maps final placement to occurrences.
	PlacementCounts map[int]int

	Kills   int
	Deaths  int
	Assists int

	MostPlayedChampion string
	MostPlayedGames    int

	// Extremes maps a metric name to its single-game maximum.
	Extremes map[string]Extreme
}

// Stats computes the descriptive summary over a player's records.
func Stats(records []domain.MatchRecord) PlayerStats {
	stats := PlayerStats{
		PlacementCounts: make(map[int]int),
		Extremes:        make(map[string]Extreme),
	}

	played := make(map[string]int)
	for _, rec := range records {
		stats.TotalGames++
		stats.PlacementCounts[rec.Placement]++
		stats.Kills += rec.Stats.Kills
		stats.Deaths += rec.Stats.Deaths
		stats.Assists += rec.Stats.Assists
		played[rec.Champion]++

		consider(stats.Extremes, "kills", rec, rec.Stats.Kills)
		consider(stats.Extremes, "damage_dealt", rec, rec.Stats.DamageDealt)
		consider(stats.Extremes, "damage_taken", rec, rec.Stats.DamageTaken)
		consider(stats.Extremes, "healing", rec, rec.Stats.Healing)
		consider(stats.Extremes, "shielding", rec, rec.Stats.Shielding)
		consider(stats.Extremes, "crowd_control", rec, rec.Stats.CrowdControl)
		consider(stats.Extremes, "gold_earned", rec, rec.Stats.GoldEarned)
	}

	for champion, games := range played {
		if games > stats.MostPlayedGames ||
			(games == stats.MostPlayedGames && champion < stats.MostPlayedChampion) {
			stats.MostPlayedChampion = champion
			stats.MostPlayedGames = games
		}
	}

	return stats
}

func consider(extremes map[string]Extreme, metric string, rec domain.MatchRecord, value int) {
	if cur, ok := extremes[metric]; ok && cur.Value >= value {
		return
	}
	extremes[metric] = Extreme{Value: value, Champion: rec.Champion, MatchID: rec.MatchID}
}
