package models

import (
	"time"

	"github.com/nkashima/vgc-scout/backend/internal/ev"
)

// Team is one rental team extracted from an article. An article usually
// yields exactly one, but tournament reports sometimes describe several.
type Team struct {
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	ID         string        `json:"id" gorm:"primaryKey"`
	ArticleID  string        `json:"article_id" gorm:"not null;index"`
	Name       string        `json:"name"`
	Regulation string        `json:"regulation" gorm:"index"`
	RentalCode string        `json:"rental_code"` // In-game rental team code when the article shows one
	Source     string        `json:"source"`      // "gemini", "parser", or "hybrid"
	Confidence float64       `json:"confidence"`
	Pokemon    []TeamPokemon `json:"pokemon,omitempty" gorm:"foreignKey:TeamID;references:ID;constraint:OnDelete:CASCADE"`
}

// TeamPokemon is a single team slot with its extracted build. EV columns
// are stored flat so they can be filtered and aggregated in SQL; EVSource
// carries the extraction provenance tag unchanged.
type TeamPokemon struct {
	ID        uint          `json:"id" gorm:"primaryKey;autoIncrement"`
	TeamID    string        `json:"team_id" gorm:"not null;index"`
	Slot      int           `json:"slot" gorm:"not null"` // 1-6 in article order
	Name      string        `json:"name" gorm:"index"`    // English name when known
	NameJA    string        `json:"name_ja"`
	Item      string        `json:"item"`
	Ability   string        `json:"ability"`
	TeraType  string        `json:"tera_type"`
	Nature    Nature        `json:"nature"`
	Moves     string        `json:"moves,omitempty" gorm:"type:text"` // JSON array of move names
	HPEV      int           `json:"hp_ev"`
	AtkEV     int           `json:"atk_ev"`
	DefEV     int           `json:"def_ev"`
	SpaEV     int           `json:"spa_ev"`
	SpdEV     int           `json:"spd_ev"`
	SpeEV     int           `json:"spe_ev"`
	EVSource  ev.Provenance `json:"ev_source" gorm:"not null;default:'default_missing'"`
	RawEVText string        `json:"raw_ev_text,omitempty"` // Matched notation snippet for debugging
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TableName keeps the slot table singular; Pokemon does not pluralize.
func (TeamPokemon) TableName() string {
	return "team_pokemon"
}

// EVSpread reassembles the flat EV columns into a spread vector.
func (p *TeamPokemon) EVSpread() ev.Spread {
	return ev.Spread{
		HP:      p.HPEV,
		Attack:  p.AtkEV,
		Defense: p.DefEV,
		SpAtk:   p.SpaEV,
		SpDef:   p.SpdEV,
		Speed:   p.SpeEV,
	}
}

// SetEVSpread writes a spread and its provenance into the flat columns.
func (p *TeamPokemon) SetEVSpread(s ev.Spread, prov ev.Provenance) {
	p.HPEV = s.HP
	p.AtkEV = s.Attack
	p.DefEV = s.Defense
	p.SpaEV = s.SpAtk
	p.SpdEV = s.SpDef
	p.SpeEV = s.Speed
	p.EVSource = prov
}

// EVTotal returns the summed investment across the flat columns.
func (p *TeamPokemon) EVTotal() int {
	return p.HPEV + p.AtkEV + p.DefEV + p.SpaEV + p.SpdEV + p.SpeEV
}

// EVExplanation returns the display-ready description of how this slot's
// spread was obtained.
func (p *TeamPokemon) EVExplanation() ev.Explanation {
	return ev.Explain(p.EVSource)
}

type TeamSearchResult struct {
	Teams      []Team `json:"teams"`
	TotalCount int    `json:"total_count"`
	HasMore    bool   `json:"has_more"`
}
