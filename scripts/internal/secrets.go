package internal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/postgres"
	"github.com/academyhub/paycore/internal/security"
	"github.com/academyhub/paycore/internal/types"
)

// GenerateEncryptionKey prints a random key for secrets.encryption_key
func GenerateEncryptionKey() error {
	key := make([]byte, 16)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("unable to generate key: %w", err)
	}

	// 32 hex characters give the cipher exactly 32 key bytes
	fmt.Println("Generated Key:", hex.EncodeToString(key))
	fmt.Println("\nSet this environment variable:")
	fmt.Printf("PAYCORE_SECRETS_ENCRYPTION_KEY='%s'\n", hex.EncodeToString(key))
	return nil
}

func newEncryption() (*config.Configuration, *logger.Logger, security.EncryptionService, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	svc, err := security.NewEncryptionService(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, svc, nil
}

func encryptValue(svc security.EncryptionService, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("SETTING_VALUE is required")
	}
	encrypted, err := svc.Encrypt(value)
	if err != nil {
		return "", err
	}
	return security.EncryptedValuePrefix + encrypted, nil
}

// EncryptSetting prints SETTING_VALUE in the stored "enc:" form
func EncryptSetting() error {
	_, _, svc, err := newEncryption()
	if err != nil {
		return err
	}

	stored, err := encryptValue(svc, os.Getenv("SETTING_VALUE"))
	if err != nil {
		return err
	}
	fmt.Println(stored)
	return nil
}

// SetGatewaySetting encrypts SETTING_VALUE and writes it into the academy's
// gateway overrides under GATEWAY.SETTING_KEY
func SetGatewaySetting() error {
	tenantID := os.Getenv("TENANT_ID")
	gateway := types.ParsePaymentGatewayType(os.Getenv("GATEWAY"))
	key := os.Getenv("SETTING_KEY")

	if tenantID == "" || key == "" {
		return fmt.Errorf("TENANT_ID and SETTING_KEY are required")
	}
	if err := gateway.Validate(); err != nil {
		return err
	}

	cfg, log, svc, err := newEncryption()
	if err != nil {
		return err
	}

	stored, err := encryptValue(svc, os.Getenv("SETTING_VALUE"))
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := `INSERT INTO tenant_payment_settings (tenant_id, gateway_overrides)
		VALUES ($1, jsonb_build_object($2::text, jsonb_build_object($3::text, $4::text)))
		ON CONFLICT (tenant_id) DO UPDATE SET
			gateway_overrides = jsonb_set(
				tenant_payment_settings.gateway_overrides,
				ARRAY[$2::text],
				COALESCE(tenant_payment_settings.gateway_overrides -> $2::text, '{}'::jsonb) || jsonb_build_object($3::text, $4::text)
			),
			updated_at = NOW()`

	if _, err := db.GetQuerier(ctx).ExecContext(ctx, query, tenantID, gateway.String(), key, stored); err != nil {
		return fmt.Errorf("failed to store gateway setting: %w", err)
	}

	log.Infow("stored encrypted gateway setting",
		"tenant_id", tenantID,
		"gateway", gateway,
		"key", key,
	)
	return nil
}
