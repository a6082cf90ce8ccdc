package local

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/i474232898/simple-weather/internal/setting"
)

// Repository implements setting.Repository on top of a DataSource.
type Repository struct {
	source *DataSource
	log    zerolog.Logger
}

var _ setting.Repository = (*Repository)(nil)

func NewRepository(source *DataSource, log zerolog.Logger) *Repository {
	return &Repository{
		source: source,
		log:    log.With().Str("component", "setting_repository").Logger(),
	}
}

// Save persists s. Any store failure is reported as *setting.LocalStorageError.
func (r *Repository) Save(ctx context.Context, s setting.UserSetting) error {
	if err := r.source.Save(ctx, ToPersisted(s)); err != nil {
		r.log.Error().Err(err).Msg("saving settings failed")
		return setting.NewLocalStorageError(err, setting.MsgSaveDataErr)
	}
	r.log.Debug().Interface("setting", s).Msg("settings saved")
	return nil
}

// Get never fails: read problems surface as default values on the stream.
func (r *Repository) Get(ctx context.Context) (<-chan setting.UserSetting, error) {
	models := r.source.Get(ctx)
	out := make(chan setting.UserSetting)

	go func() {
		defer close(out)
		for m := range models {
			select {
			case out <- ToDomain(m):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
