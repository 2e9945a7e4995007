package api

import (
	"log/slog"

	"github.com/ammar0144/recordsapi/pkg/db"
	"github.com/ammar0144/recordsapi/pkg/models"
	"github.com/ammar0144/recordsapi/pkg/query"
	"github.com/ammar0144/recordsapi/pkg/repository"
)

// Resources registers the records collections served by recordsd. inv may be
// nil when response caching is disabled.
func Resources(m *db.Manager, inv repository.Invalidator, logger *slog.Logger) []Resource {
	sisters := repository.NewGenericRepository[models.Sister](m, inv, repository.Options{
		Resource:    "sisters",
		Columns:     []string{"sisters.*"},
		Filterable:  []string{"id", "status", "last_name", "religious_name", "community_id", "birth_date", "communities.country", "communities.city"},
		Sortable:    []string{"id", "last_name", "religious_name", "birth_date", "created_at"},
		Joinable:    []string{"communities"},
		DefaultSort: query.Sort{Column: "last_name", Order: query.Asc},
	}, logger)

	communities := repository.NewGenericRepository[models.Community](m, inv, repository.Options{
		Resource:    "communities",
		Filterable:  []string{"id", "name", "city", "country", "founded_year"},
		Sortable:    []string{"id", "name", "city", "country", "founded_year"},
		DefaultSort: query.Sort{Column: "name", Order: query.Asc},
	}, logger)

	missions := repository.NewGenericRepository[models.Mission](m, inv, repository.Options{
		Resource:    "missions",
		Columns:     []string{"missions.*"},
		Filterable:  []string{"id", "sister_id", "name", "country", "start_date", "end_date", "sisters.status"},
		Sortable:    []string{"id", "start_date", "end_date", "country"},
		Joinable:    []string{"sisters"},
		DefaultSort: query.Sort{Column: "start_date", Order: query.Desc},
	}, logger)

	return []Resource{
		NewResource[models.Sister](sisters, logger),
		NewResource[models.Community](communities, logger),
		NewResource[models.Mission](missions, logger),
	}
}
