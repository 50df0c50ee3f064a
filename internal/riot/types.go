package riot

// AccountResponse is the account-v1 by-riot-id payload.
type AccountResponse struct {
	Puuid    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// MatchDetail is the match-v5 payload, trimmed to the fields the tracker
// reads.
type MatchDetail struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameCreation int64         `json:"gameCreation"`
	GameDuration int64         `json:"gameDuration"`
	GameMode     string        `json:"gameMode"`
	GameVersion  string        `json:"gameVersion"`
	QueueID      int           `json:"queueId"`
	Participants []Participant `json:"participants"`
}

type Participant struct {
	Puuid          string `json:"puuid"`
	RiotIDGameName string `json:"riotIdGameName,omitempty"`
	SummonerName   string `json:"summonerName,omitempty"`
	ChampionName   string `json:"championName"`
	Placement      int    `json:"placement"`

	// Arena subteam (the 2-player team within the lobby).
	PlayerSubteamID int `json:"playerSubteamId"`

	Kills                          int `json:"kills"`
	Deaths                         int `json:"deaths"`
	Assists                        int `json:"assists"`
	TotalDamageDealtToChampions    int `json:"totalDamageDealtToChampions"`
	TotalDamageTaken               int `json:"totalDamageTaken"`
	TotalHeal                      int `json:"totalHeal"`
	TotalDamageShieldedOnTeammates int `json:"totalDamageShieldedOnTeammates"`
	TimeCCingOthers                int `json:"timeCCingOthers"`
	GoldEarned                     int `json:"goldEarned"`
	Spell1Casts                    int `json:"spell1Casts"`
	Spell2Casts                    int `json:"spell2Casts"`
	Spell3Casts                    int `json:"spell3Casts"`
	Spell4Casts                    int `json:"spell4Casts"`
}

// Name returns the best available display name for a participant. Newer
// payloads carry the riot id, older ones only the summoner name.
func (p *Participant) Name() string {
	if p.RiotIDGameName != "" {
		return p.RiotIDGameName
	}
	return p.SummonerName
}
