// Package presentation holds UI-facing state for the settings screen.
package presentation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/simple-weather/internal/setting"
)

// Status is the coarse state of the settings screen.
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// UIState is a point-in-time view of the settings screen. Error and
// SuccessMessage are one-shot signals: they stay set until cleared.
type UIState struct {
	Status         Status
	Setting        *setting.UserSetting
	Failure        setting.DomainError
	Error          setting.DomainError
	SuccessMessage setting.MessageID
}

// SettingsReader is the read access operation the view model observes.
type SettingsReader interface {
	Invoke(ctx context.Context) (<-chan setting.UserSetting, error)
}

// SettingsWriter is the write access operation the view model calls.
type SettingsWriter interface {
	Invoke(ctx context.Context, s setting.UserSetting) error
}

// SettingViewModel observes the live settings stream and forwards edits to
// the write operation. A successful write does not touch the held setting;
// it changes when the stream re-emits.
type SettingViewModel struct {
	reader SettingsReader
	writer SettingsWriter
	log    zerolog.Logger

	mu      sync.RWMutex
	status  Status
	current *setting.UserSetting
	failure setting.DomainError
	err     setting.DomainError
	success setting.MessageID

	watchers map[uuid.UUID]chan UIState
}

func NewSettingViewModel(reader SettingsReader, writer SettingsWriter, log zerolog.Logger) *SettingViewModel {
	return &SettingViewModel{
		reader:   reader,
		writer:   writer,
		log:      log.With().Str("component", "setting_viewmodel").Logger(),
		status:   StatusLoading,
		watchers: make(map[uuid.UUID]chan UIState),
	}
}

// Start enters Loading and observes the settings stream until ctx is done.
func (vm *SettingViewModel) Start(ctx context.Context) {
	vm.update(func() {
		vm.status = StatusLoading
	})

	stream, err := vm.reader.Invoke(ctx)
	if err != nil {
		vm.onStreamError(err)
		return
	}

	go func() {
		for s := range stream {
			s := s
			vm.update(func() {
				vm.current = &s
				vm.status = StatusSuccess
				vm.failure = nil
				vm.err = nil
			})
		}
		vm.log.Debug().Msg("settings stream closed")
	}()
}

func (vm *SettingViewModel) onStreamError(err error) {
	de, ok := setting.AsDomainError(err)
	if !ok {
		vm.log.Warn().Err(err).Msg("ignoring non-domain settings stream failure")
		vm.update(func() {
			vm.err = nil
			vm.status = StatusLoading
		})
		return
	}
	vm.log.Error().Err(err).Msg("settings stream failed")
	vm.update(func() {
		vm.err = de
		vm.failure = de
		vm.status = StatusError
	})
}

func (vm *SettingViewModel) UpdateTemperatureUnit(ctx context.Context, t setting.Temperature) error {
	return vm.save(ctx, vm.held().WithTemperature(t))
}

func (vm *SettingViewModel) UpdateWindSpeedUnit(ctx context.Context, s setting.SpeedType) error {
	return vm.save(ctx, vm.held().WithWindSpeedType(s))
}

func (vm *SettingViewModel) UpdateDailyNotification(ctx context.Context, enabled bool) error {
	return vm.save(ctx, vm.held().WithDailyNotification(enabled))
}

func (vm *SettingViewModel) UpdateDangerNotification(ctx context.Context, enabled bool) error {
	return vm.save(ctx, vm.held().WithDangerNotification(enabled))
}

// held returns the last emitted setting, or the defaults before the first
// emission.
func (vm *SettingViewModel) held() setting.UserSetting {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.current == nil {
		return setting.DefaultUserSetting()
	}
	return *vm.current
}

func (vm *SettingViewModel) save(ctx context.Context, s setting.UserSetting) error {
	err := vm.writer.Invoke(ctx, s)
	if err == nil {
		vm.update(func() {
			vm.success = setting.MsgSettingsSaved
			vm.err = nil
		})
		return nil
	}

	if de, ok := setting.AsDomainError(err); ok {
		vm.update(func() {
			vm.err = de
			vm.success = ""
		})
	}
	return err
}

// ClearError acknowledges the error signal.
func (vm *SettingViewModel) ClearError() {
	vm.update(func() {
		vm.err = nil
	})
}

// ClearSuccessMessage acknowledges the success signal.
func (vm *SettingViewModel) ClearSuccessMessage() {
	vm.update(func() {
		vm.success = ""
	})
}

// Snapshot returns the current state.
func (vm *SettingViewModel) Snapshot() UIState {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.snapshotLocked()
}

func (vm *SettingViewModel) snapshotLocked() UIState {
	st := UIState{
		Status:         vm.status,
		Failure:        vm.failure,
		Error:          vm.err,
		SuccessMessage: vm.success,
	}
	if vm.current != nil {
		s := *vm.current
		st.Setting = &s
	}
	return st
}

// Subscribe emits the current state and then every change until ctx is
// done. Slow readers only see the latest state.
func (vm *SettingViewModel) Subscribe(ctx context.Context) <-chan UIState {
	ch := make(chan UIState, 1)
	id := uuid.New()

	vm.mu.Lock()
	vm.watchers[id] = ch
	ch <- vm.snapshotLocked()
	vm.mu.Unlock()

	go func() {
		<-ctx.Done()
		vm.mu.Lock()
		delete(vm.watchers, id)
		close(ch)
		vm.mu.Unlock()
	}()

	return ch
}

// update applies fn under the lock and publishes the resulting state.
func (vm *SettingViewModel) update(fn func()) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	fn()
	st := vm.snapshotLocked()
	for _, ch := range vm.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}
