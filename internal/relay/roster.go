package relay

// roster keeps the players of a match in join order. The owning match
// serialises access.
type roster struct {
	players map[string]*Player
	order   []string
}

func newRoster() *roster {
	return &roster{players: make(map[string]*Player)}
}

func (r *roster) add(p *Player) {
	if _, ok := r.players[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.players[p.ID] = p
}

func (r *roster) remove(id string) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	delete(r.players, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p
}

func (r *roster) get(id string) *Player {
	return r.players[id]
}

func (r *roster) len() int {
	return len(r.order)
}

func (r *roster) all() []*Player {
	players := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.players[id])
	}
	return players
}

func (r *roster) alive() []*Player {
	players := make([]*Player, 0, len(r.order))
	for _, p := range r.all() {
		if p.Alive {
			players = append(players, p)
		}
	}
	return players
}

// allReady reports whether at least minPlayers joined and all are ready.
func (r *roster) allReady(minPlayers int) bool {
	if len(r.order) < minPlayers {
		return false
	}
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// reset puts everyone back to the lobby state.
func (r *roster) reset() {
	for _, p := range r.players {
		p.Ready = false
		p.Alive = true
		p.Rank = 0
		p.snapshot = nil
	}
}
