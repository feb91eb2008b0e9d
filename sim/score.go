package sim

const (
	ZombieKillPoints = 10
	TitanKillPoints  = 50
	WavePoints       = 100
)

// Score maps kill counters and the current wave to points
func Score(zombieKills, titanKills, wave int) int {
	return zombieKills*ZombieKillPoints + titanKills*TitanKillPoints + wave*WavePoints
}

// Kills counts enemies destroyed by the player
type Kills struct {
	Zombies int `json:"zombies"`
	Titans  int `json:"titans"`
}

func (k *Kills) add(kind Kind) {
	switch kind {
	case Zombie:
		k.Zombies++
	case Titan:
		k.Titans++
	}
}
