package services

import (
	"database/sql"

	"crime-etl/models"
	"crime-etl/utils"
)

// FactBuilder produces one fato_crimes row per silver record.
type FactBuilder struct {
	logger *utils.Logger
}

// NewFactBuilder creates a FactBuilder with the given logger.
func NewFactBuilder(logger *utils.Logger) *FactBuilder {
	return &FactBuilder{logger: logger}
}

// Build resolves each record's dimension keys through maps. A lookup miss
// leaves the foreign key null.
func (b *FactBuilder) Build(records []*models.SilverRecord, maps KeyMaps) []models.FactCrime {
	facts := make([]models.FactCrime, len(records))
	misses := 0

	for i, r := range records {
		f := models.FactCrime{
			SKCrime:    int64(i + 1),
			NKCrimeID:  r.CrimeID,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			IsViolent:  r.IsViolent,
			HasWeapon:  r.HasWeapon,
			CaseClosed: r.CaseClosed,
		}

		if r.DateOccurred.Valid {
			f.SKDate = lookupKey(maps.Date, models.DateKeyOf(r.DateOccurred.Time))
		}
		if r.Hour.Valid {
			f.SKTime = lookupKey(maps.Time, r.Hour.Int64)
		}
		if r.AreaCode.Valid {
			f.SKArea = lookupKey(maps.Area, r.AreaCode.Int64)
		}
		if r.CrimeCode.Valid {
			f.SKCrimeType = lookupKey(maps.CrimeType, r.CrimeCode.Int64)
		}
		f.SKVictim = lookupKey(maps.Victim, models.VictimKey{
			AgeGroup: r.VictimAgeGroup,
			Sex:      r.VictimSexDesc,
			Descent:  r.VictimDescentDesc,
		})

		if !f.SKDate.Valid || !f.SKTime.Valid || !f.SKArea.Valid || !f.SKCrimeType.Valid || !f.SKVictim.Valid {
			misses++
		}
		facts[i] = f
	}

	if misses > 0 {
		b.logger.Warn("[facts] %s facts have at least one null dimension key", formatCount(misses))
	}
	b.logger.Info("[facts] built %s facts", formatCount(len(facts)))
	return facts
}

func lookupKey[K comparable](m map[K]int64, k K) sql.NullInt64 {
	sk, ok := m[k]
	if !ok {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: sk, Valid: true}
}
