package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAdapter implements ports.ResultStore using GORM and SQLite.
type SQLiteAdapter struct {
	db      *gorm.DB
	vendors ports.VendorResolver
	now     func() time.Time
}

// SessionModel is one scan invocation.
type SessionModel struct {
	ID        string `gorm:"primaryKey"`
	Mode      string
	Interface string
	StartedAt time.Time
	EndedAt   *time.Time
	Networks  int
	PMKIDs    int `gorm:"column:pmkids"`
}

func (SessionModel) TableName() string { return "sessions" }

// NetworkModel is the latest record seen for a BSSID.
type NetworkModel struct {
	BSSID          string `gorm:"primaryKey"`
	SSID           string `gorm:"index"`
	Channel        uint8
	SignalStrength int8
	Encryption     string
	Vendor         string
	SessionID      string `gorm:"index"`
	FirstSeen      time.Time
	LastSeen       time.Time
}

func (NetworkModel) TableName() string { return "networks" }

// PMKIDModel is a unique (bssid, client, pmkid) capture.
type PMKIDModel struct {
	ID            uint   `gorm:"primaryKey"`
	BSSID         string `gorm:"uniqueIndex:idx_pmkid_capture"`
	ClientMAC     string `gorm:"uniqueIndex:idx_pmkid_capture"`
	PMKID         string `gorm:"uniqueIndex:idx_pmkid_capture"`
	SSID          string
	HashcatFormat string
	SessionID     string `gorm:"index"`
	CapturedAt    time.Time
}

func (PMKIDModel) TableName() string { return "pmkids" }

// NewSQLiteAdapter opens the database at path and migrates the schema.
// Vendor names are recorded for networks when vendors is non-nil.
func NewSQLiteAdapter(path string, vendors ports.VendorResolver) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("install tracing plugin: %w", err)
	}

	if err := db.AutoMigrate(&SessionModel{}, &NetworkModel{}, &PMKIDModel{}); err != nil {
		return nil, fmt.Errorf("migrate result store: %w", err)
	}

	return &SQLiteAdapter{db: db, vendors: vendors, now: time.Now}, nil
}

// BeginSession records the start of a scan and returns its identifier.
func (a *SQLiteAdapter) BeginSession(ctx context.Context, mode, iface string) (string, error) {
	s := SessionModel{
		ID:        uuid.NewString(),
		Mode:      mode,
		Interface: iface,
		StartedAt: a.now(),
	}
	if err := a.db.WithContext(ctx).Create(&s).Error; err != nil {
		return "", err
	}
	return s.ID, nil
}

func (a *SQLiteAdapter) EndSession(ctx context.Context, sessionID string, networks, pmkids int) error {
	ended := a.now()
	res := a.db.WithContext(ctx).Model(&SessionModel{}).Where("id = ?", sessionID).Updates(map[string]any{
		"ended_at": ended,
		"networks": networks,
		"pmkids":   pmkids,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", sessionID, gorm.ErrRecordNotFound)
	}
	return nil
}

// SaveNetworks upserts networks by BSSID. The first-seen time of a known
// BSSID is preserved.
func (a *SQLiteAdapter) SaveNetworks(ctx context.Context, sessionID string, networks []domain.Network) error {
	if len(networks) == 0 {
		return nil
	}

	now := a.now()
	models := make([]NetworkModel, len(networks))
	for i, n := range networks {
		models[i] = toNetworkModel(n, sessionID, now)
		if a.vendors != nil {
			models[i].Vendor = a.vendors.Vendor(ctx, n.BSSID)
		}
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "bssid"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"ssid", "channel", "signal_strength", "encryption", "vendor", "session_id", "last_seen",
			}),
		}).CreateInBatches(models, 100).Error
	})
}

// SavePMKIDs stores captures once per (bssid, client, pmkid). A capture
// with a resolved SSID replaces the SSID of a stored unknown one; an
// unknown capture never overwrites a resolved one.
func (a *SQLiteAdapter) SavePMKIDs(ctx context.Context, sessionID string, captures []domain.PMKIDCapture) error {
	if len(captures) == 0 {
		return nil
	}

	now := a.now()
	var resolved, unknown []PMKIDModel
	for _, c := range uniqueCaptures(captures) {
		m := toPMKIDModel(c, sessionID, now)
		if c.SSID == domain.UnknownSSID {
			unknown = append(unknown, m)
		} else {
			resolved = append(resolved, m)
		}
	}

	key := []clause.Column{{Name: "bssid"}, {Name: "client_mac"}, {Name: "pmkid"}}
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(unknown) > 0 {
			if err := tx.Clauses(clause.OnConflict{Columns: key, DoNothing: true}).
				CreateInBatches(unknown, 100).Error; err != nil {
				return err
			}
		}
		if len(resolved) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   key,
				DoUpdates: clause.AssignmentColumns([]string{"ssid", "hashcat_format", "session_id"}),
			}).CreateInBatches(resolved, 100).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// uniqueCaptures keeps the last capture per (bssid, client, pmkid), in
// first-seen order. A single upsert statement cannot touch a row twice.
func uniqueCaptures(captures []domain.PMKIDCapture) []domain.PMKIDCapture {
	type key struct{ bssid, client, pmkid string }
	index := make(map[key]int, len(captures))
	var out []domain.PMKIDCapture
	for _, c := range captures {
		k := key{c.BSSID, c.ClientMAC, c.PMKID}
		if i, ok := index[k]; ok {
			if c.SSID != domain.UnknownSSID || out[i].SSID == domain.UnknownSSID {
				out[i] = c
			}
			continue
		}
		index[k] = len(out)
		out = append(out, c)
	}
	return out
}

// ListPMKIDs returns every stored capture in capture order.
func (a *SQLiteAdapter) ListPMKIDs(ctx context.Context) ([]domain.PMKIDCapture, error) {
	var models []PMKIDModel
	if err := a.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PMKIDCapture, len(models))
	for i, m := range models {
		out[i] = toPMKIDCapture(m)
	}
	return out, nil
}

// ListNetworks returns every stored network ordered by BSSID.
func (a *SQLiteAdapter) ListNetworks(ctx context.Context) ([]NetworkModel, error) {
	var models []NetworkModel
	if err := a.db.WithContext(ctx).Order("bssid").Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.ResultStore = (*SQLiteAdapter)(nil)
