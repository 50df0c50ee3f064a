// Package extract turns raw match payloads into stored match records. It
// performs no I/O; everything here is deterministic over its inputs.
package extract

import (
	"arena-tracker/internal/champions"
	"arena-tracker/internal/constants"
	"arena-tracker/internal/domain"
	"arena-tracker/internal/riot"
)

// Extract builds a MatchRecord for puuid from a raw match, or nil when the
// match is not an arena game or the player is not a participant. Champion
// names are normalized against the catalog; unmatched remote spellings are
// kept raw.
func Extract(detail *riot.MatchDetail, puuid string, catalog *champions.Catalog) *domain.MatchRecord {
	if detail == nil || detail.Info.GameMode != constants.ArenaGameMode {
		return nil
	}

	me := findParticipant(detail.Info.Participants, puuid)
	if me == nil {
		return nil
	}

	teammateName, teammateChampion := "Unknown", "Unknown"
	if tm := findTeammate(detail.Info.Participants, me); tm != nil {
		if n := tm.Name(); n != "" {
			teammateName = n
		}
		teammateChampion = catalog.Canonical(tm.ChampionName)
	}

	return &domain.MatchRecord{
		MatchID:          detail.Metadata.MatchID,
		Champion:         catalog.Canonical(me.ChampionName),
		Placement:        me.Placement,
		TeammateName:     teammateName,
		TeammateChampion: teammateChampion,
		CreatedAt:        detail.Info.GameCreation,
		Stats: domain.MatchStats{
			Kills:         me.Kills,
			Deaths:        me.Deaths,
			Assists:       me.Assists,
			DamageDealt:   me.TotalDamageDealtToChampions,
			DamageTaken:   me.TotalDamageTaken,
			Healing:       me.TotalHeal,
			Shielding:     me.TotalDamageShieldedOnTeammates,
			CrowdControl:  me.TimeCCingOthers,
			GoldEarned:    me.GoldEarned,
			AbilityQCasts: me.Spell1Casts,
			AbilityWCasts: me.Spell2Casts,
			AbilityECasts: me.Spell3Casts,
			AbilityRCasts: me.Spell4Casts,
		},
	}
}

func findParticipant(participants []riot.Participant, puuid string) *riot.Participant {
	for i := range participants {
		if participants[i].Puuid == puuid {
			return &participants[i]
		}
	}
	return nil
}

// findTeammate returns the first participant sharing the player's subteam.
func findTeammate(participants []riot.Participant, me *riot.Participant) *riot.Participant {
	for i := range participants {
		p := &participants[i]
		if p.Puuid != me.Puuid && p.PlayerSubteamID == me.PlayerSubteamID {
			return p
		}
	}
	return nil
}
