package extract

import (
	"encoding/json"
	"testing"

	"arena-tracker/internal/champions"
	"arena-tracker/internal/riot"

	"github.com/google/go-cmp/cmp"
)

const trackedPuuid = "puuid-me"

func arenaDetail(matchID string, ts int64) *riot.MatchDetail {
	return &riot.MatchDetail{
		Metadata: riot.MatchMetadata{MatchID: matchID},
		Info: riot.MatchInfo{
			GameCreation: ts,
			GameMode:     "CHERRY",
			Participants: []riot.Participant{
				{
					Puuid:                          trackedPuuid,
					RiotIDGameName:                 "Me",
					ChampionName:                   "Chogath",
					Placement:                      1,
					PlayerSubteamID:                2,
					Kills:                          7,
					Deaths:                         3,
					Assists:                        11,
					TotalDamageDealtToChampions:    24000,
					TotalDamageTaken:               18000,
					TotalHeal:                      4000,
					TotalDamageShieldedOnTeammates: 1200,
					TimeCCingOthers:                45,
					GoldEarned:                     15500,
					Spell1Casts:                    40,
					Spell2Casts:                    25,
					Spell3Casts:                    18,
					Spell4Casts:                    6,
				},
				{Puuid: "puuid-enemy", RiotIDGameName: "Enemy", ChampionName: "Jinx", Placement: 4, PlayerSubteamID: 1},
				{Puuid: "puuid-mate", RiotIDGameName: "Mate", ChampionName: "DrMundo", Placement: 1, PlayerSubteamID: 2},
			},
		},
	}
}

func TestExtractArenaMatch(t *testing.T) {
	catalog := champions.NewCatalog()
	rec := Extract(arenaDetail("EUW1_1", 1714600000000), trackedPuuid, catalog)
	if rec == nil {
		t.Fatal("Extract returned nil for a tracked-mode match")
	}

	if rec.MatchID != "EUW1_1" {
		t.Errorf("MatchID = %q", rec.MatchID)
	}
	if rec.Champion != "Cho'Gath" {
		t.Errorf("Champion = %q, want catalog spelling Cho'Gath", rec.Champion)
	}
	if rec.Placement != 1 {
		t.Errorf("Placement = %d, want 1", rec.Placement)
	}
	if rec.TeammateName != "Mate" || rec.TeammateChampion != "Dr. Mundo" {
		t.Errorf("teammate = %q/%q, want Mate/Dr. Mundo", rec.TeammateName, rec.TeammateChampion)
	}
	if rec.CreatedAt != 1714600000000 {
		t.Errorf("CreatedAt = %d", rec.CreatedAt)
	}

	wantStats := map[string]int{
		"kills": 7, "deaths": 3, "assists": 11,
		"damage_dealt": 24000, "damage_taken": 18000,
		"healing": 4000, "shielding": 1200, "cc": 45, "gold": 15500,
	}
	gotStats := map[string]int{
		"kills": rec.Stats.Kills, "deaths": rec.Stats.Deaths, "assists": rec.Stats.Assists,
		"damage_dealt": rec.Stats.DamageDealt, "damage_taken": rec.Stats.DamageTaken,
		"healing": rec.Stats.Healing, "shielding": rec.Stats.Shielding,
		"cc": rec.Stats.CrowdControl, "gold": rec.Stats.GoldEarned,
	}
	if diff := cmp.Diff(wantStats, gotStats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractRejectsOtherModes(t *testing.T) {
	catalog := champions.NewCatalog()
	detail := arenaDetail("EUW1_2", 1714600000000)
	detail.Info.GameMode = "ARAM"

	if rec := Extract(detail, trackedPuuid, catalog); rec != nil {
		t.Errorf("Extract returned a record for an ARAM game: %+v", rec)
	}
}

func TestExtractMissingParticipant(t *testing.T) {
	catalog := champions.NewCatalog()
	if rec := Extract(arenaDetail("EUW1_3", 1), "puuid-other", catalog); rec != nil {
		t.Errorf("Extract returned a record for an absent participant: %+v", rec)
	}
}

func TestExtractTeammateFallback(t *testing.T) {
	catalog := champions.NewCatalog()
	detail := arenaDetail("EUW1_4", 1)
	// strip everyone but the tracked player
	detail.Info.Participants = detail.Info.Participants[:1]

	rec := Extract(detail, trackedPuuid, catalog)
	if rec == nil {
		t.Fatal("Extract returned nil")
	}
	if rec.TeammateName != "Unknown" || rec.TeammateChampion != "Unknown" {
		t.Errorf("teammate = %q/%q, want Unknown/Unknown", rec.TeammateName, rec.TeammateChampion)
	}
}

func TestExtractFromRawPayload(t *testing.T) {
	raw := `{
		"metadata": {"matchId": "EUW1_77", "participants": ["puuid-me", "puuid-mate"]},
		"info": {
			"gameCreation": 1714700000000,
			"gameMode": "CHERRY",
			"participants": [
				{"puuid": "puuid-me", "riotIdGameName": "Me", "championName": "KSante",
				 "placement": 2, "playerSubteamId": 1, "kills": 4, "deaths": 5, "assists": 9,
				 "totalDamageDealtToChampions": 19000, "goldEarned": 12000},
				{"puuid": "puuid-mate", "riotIdGameName": "Mate", "championName": "Belveth",
				 "placement": 2, "playerSubteamId": 1}
			]
		}
	}`

	var detail riot.MatchDetail
	if err := json.Unmarshal([]byte(raw), &detail); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	rec := Extract(&detail, "puuid-me", champions.NewCatalog())
	if rec == nil {
		t.Fatal("Extract returned nil")
	}
	if rec.Champion != "K'Sante" {
		t.Errorf("Champion = %q, want K'Sante", rec.Champion)
	}
	if rec.TeammateChampion != "Bel'Veth" {
		t.Errorf("TeammateChampion = %q, want Bel'Veth", rec.TeammateChampion)
	}
	if rec.Win() {
		t.Error("placement 2 must not count as a win")
	}
}
