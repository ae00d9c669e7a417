package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nkashima/vgc-scout/backend/internal/ev"
	"github.com/nkashima/vgc-scout/backend/internal/models"
)

const (
	defaultTeamPageSize = 20
	maxTeamPageSize     = 100
)

// TeamService stores and queries extracted teams
type TeamService struct {
	db *gorm.DB
}

// NewTeamService creates a new team service
func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{db: db}
}

// TeamSearchParams filters team listings. Zero values mean "no filter".
type TeamSearchParams struct {
	Query         string // substring of the team name
	Regulation    string // single regulation letter
	Pokemon       string // substring of a slot's English or Japanese name
	EVSource      string // provenance tag filter
	MinConfidence float64
	Limit         int
	Offset        int
}

// SaveAnalyzedTeam persists one analysis outcome, replacing any teams a
// previous run extracted from the same article.
func (s *TeamService) SaveAnalyzedTeam(article *models.Article, analyzed *AnalyzedTeam) (*models.Team, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if analyzed == nil || len(analyzed.Pokemon) == 0 {
		return nil, fmt.Errorf("no pokemon to save")
	}

	team := models.Team{
		ID:         uuid.New().String(),
		ArticleID:  article.ID,
		Name:       teamNameFor(article, analyzed),
		Regulation: analyzed.Regulation,
		RentalCode: analyzed.RentalCode,
		Source:     analyzed.Source,
		Confidence: analyzed.Confidence,
	}
	if team.Regulation == "" {
		team.Regulation = article.Regulation
	}

	for _, p := range analyzed.Pokemon {
		movesJSON := ""
		if len(p.Moves) > 0 {
			if data, err := json.Marshal(p.Moves); err == nil {
				movesJSON = string(data)
			}
		}

		slot := models.TeamPokemon{
			TeamID:    team.ID,
			Slot:      p.Slot,
			Name:      p.Name,
			NameJA:    p.NameJA,
			Item:      p.Item,
			Ability:   p.Ability,
			TeraType:  p.TeraType,
			Nature:    p.Nature,
			Moves:     movesJSON,
			RawEVText: p.RawEVText,
		}
		slot.SetEVSpread(p.Spread, p.EVSource)
		team.Pokemon = append(team.Pokemon, slot)
	}

	if err := s.deleteTeamsByArticle(article.ID); err != nil {
		return nil, err
	}
	if err := s.db.Create(&team).Error; err != nil {
		return nil, fmt.Errorf("failed to save team: %w", err)
	}

	return &team, nil
}

// GetTeam returns one team with its slots in article order.
func (s *TeamService) GetTeam(id string) (*models.Team, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var team models.Team
	err := s.db.Preload("Pokemon", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot ASC")
	}).First(&team, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// TeamsByArticle returns every team extracted from one article.
func (s *TeamService) TeamsByArticle(articleID string) ([]models.Team, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var teams []models.Team
	err := s.db.Preload("Pokemon", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot ASC")
	}).Where("article_id = ?", articleID).Order("created_at ASC").Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	return teams, nil
}

// SearchTeams lists teams matching the given filters, newest first.
func (s *TeamService) SearchTeams(params TeamSearchParams) (*models.TeamSearchResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultTeamPageSize
	}
	if limit > maxTeamPageSize {
		limit = maxTeamPageSize
	}

	query := s.db.Model(&models.Team{})

	if params.Query != "" {
		query = query.Where("name LIKE ?", "%"+params.Query+"%")
	}
	if params.Regulation != "" {
		query = query.Where("regulation = ?", strings.ToUpper(strings.TrimSpace(params.Regulation)))
	}
	if params.MinConfidence > 0 {
		query = query.Where("confidence >= ?", params.MinConfidence)
	}
	if params.Pokemon != "" {
		like := "%" + params.Pokemon + "%"
		sub := s.db.Model(&models.TeamPokemon{}).Select("team_id").
			Where("name LIKE ? OR name_ja LIKE ?", like, like)
		query = query.Where("id IN (?)", sub)
	}
	if params.EVSource != "" {
		sub := s.db.Model(&models.TeamPokemon{}).Select("team_id").
			Where("ev_source = ?", params.EVSource)
		query = query.Where("id IN (?)", sub)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count teams: %w", err)
	}

	var teams []models.Team
	err := query.
		Preload("Pokemon", func(db *gorm.DB) *gorm.DB {
			return db.Order("slot ASC")
		}).
		Order("created_at DESC").
		Limit(limit).
		Offset(params.Offset).
		Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search teams: %w", err)
	}

	return &models.TeamSearchResult{
		Teams:      teams,
		TotalCount: int(total),
		HasMore:    params.Offset+len(teams) < int(total),
	}, nil
}

// DeleteTeam removes a team and its slots.
func (s *TeamService) DeleteTeam(id string) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := s.db.Where("team_id = ?", id).Delete(&models.TeamPokemon{}).Error; err != nil {
		return fmt.Errorf("failed to delete team slots: %w", err)
	}

	result := s.db.Where("id = ?", id).Delete(&models.Team{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete team: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *TeamService) deleteTeamsByArticle(articleID string) error {
	var ids []string
	if err := s.db.Model(&models.Team{}).Where("article_id = ?", articleID).Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("failed to list existing teams: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.db.Where("team_id IN ?", ids).Delete(&models.TeamPokemon{}).Error; err != nil {
		return fmt.Errorf("failed to delete team slots: %w", err)
	}
	if err := s.db.Where("id IN ?", ids).Delete(&models.Team{}).Error; err != nil {
		return fmt.Errorf("failed to delete teams: %w", err)
	}
	return nil
}

// teamNameFor derives a display name from the article title, or from the
// lead Pokémon when there is no usable title.
func teamNameFor(article *models.Article, analyzed *AnalyzedTeam) string {
	if article != nil && strings.TrimSpace(article.Title) != "" {
		return TranslateSpeciesNames(strings.TrimSpace(article.Title))
	}

	var leads []string
	for i, p := range analyzed.Pokemon {
		if i == 2 {
			break
		}
		name := p.Name
		if name == "" {
			name = p.NameJA
		}
		if name != "" {
			leads = append(leads, name)
		}
	}
	if len(leads) == 0 {
		return "Unnamed team"
	}
	return strings.Join(leads, " / ") + " team"
}

// TeamReport is the display-ready view of a stored team: moves decoded,
// spreads formatted, provenance explained.
type TeamReport struct {
	models.Team
	Pokemon []TeamPokemonReport `json:"pokemon"`
}

// TeamPokemonReport wraps one slot with its derived display fields.
type TeamPokemonReport struct {
	models.TeamPokemon
	Moves       []string       `json:"moves,omitempty"`
	Spread      string         `json:"spread"`
	EVTotal     int            `json:"ev_total"`
	Explanation ev.Explanation `json:"ev_explanation"`
}

// BuildTeamReport converts a stored team into its report form.
func BuildTeamReport(team *models.Team) *TeamReport {
	report := &TeamReport{Team: *team}
	report.Team.Pokemon = nil

	for _, p := range team.Pokemon {
		entry := TeamPokemonReport{
			TeamPokemon: p,
			Spread:      p.EVSpread().SlashFormat(),
			EVTotal:     p.EVTotal(),
			Explanation: p.EVExplanation(),
		}
		if p.Moves != "" {
			var moves []string
			if err := json.Unmarshal([]byte(p.Moves), &moves); err == nil {
				entry.Moves = moves
			}
		}
		report.Pokemon = append(report.Pokemon, entry)
	}

	return report
}
