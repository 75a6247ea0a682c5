package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/autokat/backend/internal/geom"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CalibrationStore persists the corner set so a restart resumes it.
type CalibrationStore interface {
	Load(ctx context.Context) (Calibration, error)
	Save(ctx context.Context, c Calibration) error
}

// ErrNoCalibration is returned by stores that have nothing saved yet.
var ErrNoCalibration = errors.New("no saved calibration")

// FileCalibrationStore keeps the calibration as a JSON object on disk.
type FileCalibrationStore struct {
	Path string
}

func NewFileCalibrationStore(path string) *FileCalibrationStore {
	return &FileCalibrationStore{Path: path}
}

func (s *FileCalibrationStore) Load(_ context.Context) (Calibration, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Calibration{}, ErrNoCalibration
	}
	if err != nil {
		return Calibration{}, fmt.Errorf("read calibration %s: %w", s.Path, err)
	}
	return decodeCalibration(data)
}

// Save writes to a temp file and renames it over the target.
func (s *FileCalibrationStore) Save(_ context.Context, c Calibration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".calibration-*.json")
	if err != nil {
		return fmt.Errorf("write calibration: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write calibration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write calibration: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("write calibration: %w", err)
	}
	return nil
}

// RedisCalibrationStore keeps the calibration JSON under a single key.
type RedisCalibrationStore struct {
	rdb *redis.Client
	key string
}

func NewRedisCalibrationStore(rdb *redis.Client, key string) *RedisCalibrationStore {
	if key == "" {
		key = "autokat:calibration"
	}
	return &RedisCalibrationStore{rdb: rdb, key: key}
}

func (s *RedisCalibrationStore) Load(ctx context.Context) (Calibration, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Calibration{}, ErrNoCalibration
	}
	if err != nil {
		return Calibration{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decodeCalibration(data)
}

func (s *RedisCalibrationStore) Save(ctx context.Context, c Calibration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func decodeCalibration(data []byte) (Calibration, error) {
	var c Calibration
	if err := json.Unmarshal(data, &c); err != nil {
		return Calibration{}, fmt.Errorf("decode calibration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Calibration{}, err
	}
	return c, nil
}

// LoadCalibration reads the saved calibration, falling back to the identity
// mapping for the screen when nothing usable is stored.
func LoadCalibration(ctx context.Context, store CalibrationStore, screen geom.Vec, log *zap.SugaredLogger) Calibration {
	fallback := IdentityCalibration(screen)
	if store == nil {
		return fallback
	}
	c, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoCalibration):
		log.Infof("[CALIBRATION] No saved calibration, using default %v", fallback)
		return fallback
	case err != nil:
		log.Warnf("[CALIBRATION] Couldn't load calibration (%v), using default %v", err, fallback)
		return fallback
	}
	log.Infof("[CALIBRATION] Using saved calibration %v", c)
	return c
}
