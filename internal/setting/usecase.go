package setting

import "context"

// GetUserSetting exposes the live settings stream to the presentation layer.
type GetUserSetting struct {
	repo Repository
}

func NewGetUserSetting(repo Repository) *GetUserSetting {
	return &GetUserSetting{repo: repo}
}

func (u *GetUserSetting) Invoke(ctx context.Context) (<-chan UserSetting, error) {
	return u.repo.Get(ctx)
}

// SetUserSetting persists a complete settings value. Repository failures are
// returned unchanged.
type SetUserSetting struct {
	repo Repository
}

func NewSetUserSetting(repo Repository) *SetUserSetting {
	return &SetUserSetting{repo: repo}
}

func (u *SetUserSetting) Invoke(ctx context.Context, s UserSetting) error {
	return u.repo.Save(ctx, s)
}
