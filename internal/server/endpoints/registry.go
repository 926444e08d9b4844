package endpoints

import (
	"github.com/jackzampolin/folio/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Ebook endpoints
		&CreateEbookEndpoint{},
		&ListEbooksEndpoint{},
		&GetEbookEndpoint{},
		&DeleteEbookEndpoint{},
		&ListEbookFilesEndpoint{},
		&GetMetadataEndpoint{},

		// Schedule endpoints
		&CreateScheduleEndpoint{},
		&ListSchedulesEndpoint{},
		&GetScheduleEndpoint{},
		&DeleteScheduleEndpoint{},
		&TriggerScheduleEndpoint{},

		// Publication endpoints
		&CreatePublicationEndpoint{},
		&ListPublicationsEndpoint{},
		&UpdatePublicationEndpoint{},
		&DeletePublicationEndpoint{},

		// Financial endpoints
		&GetFinancialEndpoint{},
		&UpsertFinancialEndpoint{},

		// Discovery endpoints
		&TrendingEndpoint{},
		&LanguagesEndpoint{},
		&PlatformsEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},

		// Generated artifact files
		&FilesEndpoint{},
	}
}

// EbookCommands groups ebook operations under the "ebooks" subcommand.
func EbookCommands() []api.Endpoint {
	return []api.Endpoint{
		&CreateEbookEndpoint{},
		&ListEbooksEndpoint{},
		&GetEbookEndpoint{},
		&DeleteEbookEndpoint{},
		&ListEbookFilesEndpoint{},
		&GetMetadataEndpoint{},
		&CreatePublicationEndpoint{},
		&ListPublicationsEndpoint{},
		&UpdatePublicationEndpoint{},
		&DeletePublicationEndpoint{},
		&GetFinancialEndpoint{},
		&UpsertFinancialEndpoint{},
	}
}

// ScheduleCommands groups schedule operations under the "schedules" subcommand.
func ScheduleCommands() []api.Endpoint {
	return []api.Endpoint{
		&CreateScheduleEndpoint{},
		&ListSchedulesEndpoint{},
		&GetScheduleEndpoint{},
		&DeleteScheduleEndpoint{},
		&TriggerScheduleEndpoint{},
	}
}
