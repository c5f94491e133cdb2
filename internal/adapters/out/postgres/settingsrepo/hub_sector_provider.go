// Package settingsrepo reads deployment settings stored in the database.
package settingsrepo

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"parcels/internal/adapters/out/postgres/pgerr"
	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/ports"
	"parcels/internal/pkg/errs"

	"gorm.io/gorm"
)

// HubSectorKey is the settings key holding the hub sector id.
const HubSectorKey = "HUB_SECTOR_ID"

var _ ports.HubSectorProvider = &HubSectorProvider{}

type settingDTO struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value *string
}

func (settingDTO) TableName() string {
	return schema.SettingsTable
}

// HubSectorProvider resolves the hub sector. A configured override wins over
// the settings table; an empty or zero value means no hub.
type HubSectorProvider struct {
	db       *gorm.DB
	override *kernel.ID
}

func NewHubSectorProvider(db *gorm.DB, override *kernel.ID) *HubSectorProvider {
	return &HubSectorProvider{
		db:       db,
		override: override,
	}
}

func (p *HubSectorProvider) HubSectorID(ctx context.Context) (*kernel.ID, error) {
	if p.override != nil {
		id := *p.override
		return &id, nil
	}

	var dto settingDTO
	err := p.db.WithContext(ctx).First(&dto, "key = ?", HubSectorKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pgerr.Classify(err, "read hub sector setting", "setting", HubSectorKey)
	}
	return ParseHubSectorID(dto.Value)
}

// ParseHubSectorID reads a hub sector value. Empty and "0" mean unconfigured.
func ParseHubSectorID(value *string) (*kernel.ID, error) {
	if value == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(*value)
	if raw == "" || raw == "0" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause(HubSectorKey, err)
	}
	id, err := kernel.NewID(n)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause(HubSectorKey, err)
	}
	return &id, nil
}
