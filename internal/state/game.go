package state

// GameState is the root aggregate for one point in the match. Once returned by the resolver it is a
// snapshot: callers must Clone before mutating.
type GameState struct {
	Turn       int            `json:"turn"`
	ShipA      ShipState      `json:"ship_a"`
	ShipB      ShipState      `json:"ship_b"`
	Torpedoes  []TorpedoState `json:"torpedoes"`
	BlastZones []BlastZone    `json:"blast_zones"`
}

// Clone returns a deep copy that shares no memory with the receiver.
func (g GameState) Clone() GameState {
	clone := g
	//1.- Copy torpedoes individually so optional detonation timers are not aliased.
	clone.Torpedoes = make([]TorpedoState, len(g.Torpedoes))
	for idx, torpedo := range g.Torpedoes {
		clone.Torpedoes[idx] = torpedo.Clone()
	}
	//2.- Blast zones hold only values, so a slice copy is enough.
	clone.BlastZones = make([]BlastZone, len(g.BlastZones))
	copy(clone.BlastZones, g.BlastZones)
	return clone
}

// Ship returns a pointer to the named ship inside g, or nil for an unknown id.
func (g *GameState) Ship(id ShipID) *ShipState {
	if g == nil {
		return nil
	}
	switch id {
	case ShipA:
		return &g.ShipA
	case ShipB:
		return &g.ShipB
	default:
		return nil
	}
}

// ActiveTorpedoes counts the torpedoes owned by id.
func (g GameState) ActiveTorpedoes(id ShipID) int {
	count := 0
	for _, torpedo := range g.Torpedoes {
		if torpedo.Owner == id {
			count++
		}
	}
	return count
}

// TorpedoIDs lists the ids of torpedoes owned by id, in state order.
func (g GameState) TorpedoIDs(id ShipID) []string {
	ids := make([]string, 0, len(g.Torpedoes))
	for _, torpedo := range g.Torpedoes {
		if torpedo.Owner == id {
			ids = append(ids, torpedo.ID)
		}
	}
	return ids
}
