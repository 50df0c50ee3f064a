package champions

import (
	"fmt"
	"math/rand"
	"strings"
)

// names is the canonical champion catalog. Spellings here are the display
// spellings; lookups go through Normalize so that remote spellings like
// "Chogath" or "KSante" resolve to the same entry.
var names = []string{
	"Aatrox", "Ahri", "Akali", "Alistar", "Amumu", "Anivia", "Annie", "Aphelios", "Ashe", "Aurelion Sol",
	"Azir", "Bard", "Blitzcrank", "Brand", "Braum", "Caitlyn", "Camille", "Cassiopeia", "Cho'Gath",
	"Corki", "Darius", "Diana", "Dr. Mundo", "Draven", "Ekko", "Elise", "Evelynn", "Ezreal", "Fiddlesticks",
	"Fiora", "Fizz", "Galio", "Gangplank", "Garen", "Gnar", "Gragas", "Graves", "Hecarim", "Heimerdinger",
	"Illaoi", "Irelia", "Ivern", "Janna", "Jarvan IV", "Jax", "Jayce", "Jhin", "Jinx", "Kai'Sa",
	"Kalista", "Karma", "Karthus", "Kassadin", "Katarina", "Kayle", "Kayn", "Kennen", "Kha'Zix", "Kindred",
	"Kled", "Kog'Maw", "LeBlanc", "Lee Sin", "Leona", "Lillia", "Lissandra", "Lucian", "Lulu", "Lux",
	"Malphite", "Malzahar", "Maokai", "Master Yi", "Miss Fortune", "Mordekaiser", "Morgana", "Nami", "Nasus", "Nautilus",
	"Neeko", "Nidalee", "Nocturne", "Nunu & Willump", "Olaf", "Orianna", "Ornn", "Pantheon", "Poppy", "Pyke",
	"Qiyana", "Quinn", "Rakan", "Rammus", "Rek'Sai", "Rell", "Renekton", "Rengar", "Riven", "Rumble",
	"Ryze", "Samira", "Sejuani", "Senna", "Seraphine", "Sett", "Shaco", "Shen", "Shyvana", "Singed",
	"Sion", "Sivir", "Skarner", "Sona", "Soraka", "Swain", "Sylas", "Syndra", "Tahm Kench", "Taliyah",
	"Talon", "Taric", "Teemo", "Thresh", "Tristana", "Trundle", "Tryndamere", "Twisted Fate", "Twitch", "Udyr",
	"Urgot", "Varus", "Vayne", "Veigar", "Vel'Koz", "Vi", "Viego", "Viktor", "Vladimir", "Volibear",
	"Warwick", "Wukong", "Xayah", "Xerath", "Xin Zhao", "Yasuo", "Yone", "Yorick", "Yuumi", "Zac",
	"Zed", "Ziggs", "Zilean", "Zoe", "Zyra", "Gwen", "Akshan", "Vex", "Zeri", "Renata Glasc", "Bel'Veth",
	"Nilah", "K'Sante", "Milio", "Naafiri", "Briar", "Hwei",
}

// Catalog maps remote champion spellings to canonical display names.
type Catalog struct {
	canonical map[string]string
	names     []string
}

func NewCatalog() *Catalog {
	c := &Catalog{
		canonical: make(map[string]string, len(names)),
		names:     names,
	}
	for _, n := range names {
		c.canonical[Normalize(n)] = n
	}
	return c
}

// Normalize lowercases a champion name and strips apostrophes, spaces and
// punctuation, so catalog and remote spellings compare equal.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonical returns the catalog spelling for a remote name. If the catalog
// has no match the raw remote name is kept as-is.
func (c *Catalog) Canonical(remote string) string {
	if n, ok := c.canonical[Normalize(remote)]; ok {
		return n
	}
	return remote
}

// Contains reports whether name matches a catalog entry.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.canonical[Normalize(name)]
	return ok
}

// Names returns the full catalog in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Catalog) Len() int {
	return len(c.names)
}

// Available returns catalog champions not present in won, in catalog order.
// This is the draw pool for a player chasing remaining first wins.
func (c *Catalog) Available(won []string) []string {
	taken := make(map[string]bool, len(won))
	for _, w := range won {
		taken[Normalize(w)] = true
	}
	var out []string
	for _, n := range c.names {
		if !taken[Normalize(n)] {
			out = append(out, n)
		}
	}
	return out
}

// RandomPair draws two distinct champions from pool.
func RandomPair(pool []string) (string, string, error) {
	if len(pool) < 2 {
		return "", "", fmt.Errorf("pool has %d champions, need at least 2", len(pool))
	}
	i := rand.Intn(len(pool))
	j := rand.Intn(len(pool) - 1)
	if j >= i {
		j++
	}
	return pool[i], pool[j], nil
}
