package domain

import (
	"time"
)

// PlayerAccount is one tracked player. PlayerID is the local identity
// (the chat-platform user id); the Riot link fields are empty until the
// player links an account.
type PlayerAccount struct {
	PlayerID    string
	DisplayName string

	// Riot id as entered by the player, e.g. "Faker" + "KR1".
	RiotName string
	RiotTag  string

	// Resolved once from RiotName/RiotTag and stable afterwards.
	Puuid string

	// Creation time (ms since epoch) of the newest match processed by the
	// last successful sync. Zero means never synced.
	LastSyncWatermark int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Linked reports whether the account has a resolved Riot identity.
func (a *PlayerAccount) Linked() bool {
	return a.Puuid != ""
}

// MatchRecord is one arena game for one player, immutable once stored.
type MatchRecord struct {
	MatchID          string
	Champion         string
	Placement        int
	TeammateName     string
	TeammateChampion string

	// Match creation time in ms since epoch.
	CreatedAt int64

	Stats MatchStats
}

// Win reports whether the record counts as a first-win candidate.
func (r *MatchRecord) Win() bool {
	return r.Placement == 1
}

// MatchStats is the per-game performance bundle copied verbatim from the
// match payload at merge time.
type MatchStats struct {
	Kills         int
	Deaths        int
	Assists       int
	DamageDealt   int
	DamageTaken   int
	Healing       int
	Shielding     int
	CrowdControl  int
	GoldEarned    int
	AbilityQCasts int
	AbilityWCasts int
	AbilityECasts int
	AbilityRCasts int
}
