package local

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/i474232898/simple-weather/internal/prefstore"
)

// DataSource reads and writes the settings model in a preference store.
type DataSource struct {
	store prefstore.Store
	log   zerolog.Logger
}

func NewDataSource(store prefstore.Store, log zerolog.Logger) *DataSource {
	return &DataSource{
		store: store,
		log:   log.With().Str("component", "setting_datasource").Logger(),
	}
}

// Save writes all four keys in one edit. Store errors are returned as is.
func (d *DataSource) Save(ctx context.Context, m UserSettingModel) error {
	return d.store.Edit(ctx, WriteModel(m))
}

// Get streams decoded models. A failed read emits the defaults and the
// stream keeps going.
func (d *DataSource) Get(ctx context.Context) <-chan UserSettingModel {
	out := make(chan UserSettingModel)
	in := d.store.Data(ctx)

	go func() {
		defer close(out)
		for snap := range in {
			prefs := snap.Prefs
			if snap.Err != nil {
				d.log.Warn().Err(snap.Err).Msg("reading settings failed; using defaults")
				prefs = prefstore.EmptyPreferences()
			}

			select {
			case out <- ReadModel(prefs):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
