package tfstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/errors"
	"github.com/cloudkinetics/azdrift/internal/log"
)

const sampleSnapshot = `{
  "format_version": "1.0",
  "terraform_version": "1.7.5",
  "values": {
    "root_module": {
      "resources": [
        {
          "address": "azurerm_storage_account.app",
          "mode": "managed",
          "type": "azurerm_storage_account",
          "name": "app",
          "provider_name": "registry.terraform.io/hashicorp/azurerm",
          "values": {
            "name": "stprodapp01",
            "location": "eastus",
            "account_tier": "Standard",
            "account_replication_type": "GRS",
            "tags": {"environment": "production"}
          }
        },
        {
          "address": "data.azurerm_client_config.current",
          "mode": "data",
          "type": "azurerm_client_config",
          "name": "current",
          "values": {}
        },
        {
          "address": "azurerm_cosmosdb_account.db",
          "mode": "managed",
          "type": "azurerm_cosmosdb_account",
          "name": "db",
          "values": {"name": "cosmos-prod"}
        }
      ],
      "child_modules": [
        {
          "address": "module.network",
          "resources": [
            {
              "address": "module.network.azurerm_virtual_network.main",
              "mode": "managed",
              "type": "azurerm_virtual_network",
              "name": "main",
              "values": {
                "name": "vnet-prod",
                "location": "eastus",
                "address_space": ["10.0.0.0/16"]
              }
            }
          ]
        }
      ]
    }
  }
}`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProvider_ListEntities(t *testing.T) {
	p, err := NewProvider(Config{FilePath: writeSnapshot(t, sampleSnapshot)}, log.NewNop())
	require.NoError(t, err)

	entities, diags, err := p.ListEntities(context.Background())
	require.NoError(t, err)

	require.Len(t, entities, 2)

	storage := entities[0]
	assert.Equal(t, domain.KindStorageAccount, storage.Kind)
	assert.Equal(t, "stprodapp01", storage.Name)
	assert.Equal(t, domain.SourceDeclared, storage.Source)
	assert.Equal(t, "azurerm_storage_account.app", storage.Location)
	assert.Equal(t, "eastus", storage.Region)
	assert.Equal(t, "GRS", storage.Properties["account_replication_type"])

	vnet := entities[1]
	assert.Equal(t, domain.KindVirtualNetwork, vnet.Kind)
	assert.Equal(t, "vnet-prod", vnet.Name, "resources inside child modules are collected")

	// The unsupported managed resource is diagnosed; the data source is
	// silently ignored.
	require.Len(t, diags, 1)
	assert.Equal(t, string(errors.CodeUnknownEntityType), diags[0].Code)
	assert.Equal(t, "azurerm_cosmosdb_account.db", diags[0].Subject)
}

func TestProvider_EmptyState(t *testing.T) {
	p, err := NewProvider(Config{FilePath: writeSnapshot(t, `{"format_version": "1.0"}`)}, log.NewNop())
	require.NoError(t, err)

	entities, diags, err := p.ListEntities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entities)
	assert.Empty(t, diags)
}

func TestProvider_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		p, err := NewProvider(Config{FilePath: filepath.Join(t.TempDir(), "missing.json")}, log.NewNop())
		require.NoError(t, err)
		_, _, err = p.ListEntities(context.Background())
		require.Error(t, err)
		assert.Equal(t, errors.CodeSourceReadError, errors.GetCode(err))
	})

	t.Run("empty file", func(t *testing.T) {
		p, err := NewProvider(Config{FilePath: writeSnapshot(t, "")}, log.NewNop())
		require.NoError(t, err)
		_, _, err = p.ListEntities(context.Background())
		require.Error(t, err)
		assert.Equal(t, errors.CodeSourceParseError, errors.GetCode(err))
	})

	t.Run("raw tfstate file rejected with guidance", func(t *testing.T) {
		raw := `{"version": 4, "terraform_version": "1.7.5", "resources": []}`
		p, err := NewProvider(Config{FilePath: writeSnapshot(t, raw)}, log.NewNop())
		require.NoError(t, err)
		_, _, err = p.ListEntities(context.Background())
		require.Error(t, err)

		msg, suggestion, userFacing := errors.GetUserFacingMessage(err)
		assert.True(t, userFacing)
		assert.NotEmpty(t, msg)
		assert.Contains(t, suggestion, "terraform show -json")
	})

	t.Run("empty path rejected", func(t *testing.T) {
		_, err := NewProvider(Config{}, log.NewNop())
		assert.Error(t, err)
	})
}

func TestProvider_ErrorCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	p, err := NewProvider(Config{FilePath: path}, log.NewNop())
	require.NoError(t, err)

	_, _, firstErr := p.ListEntities(context.Background())
	require.Error(t, firstErr)

	// Creating the file afterwards does not change the cached outcome.
	require.NoError(t, os.WriteFile(path, []byte(sampleSnapshot), 0o644))
	_, _, secondErr := p.ListEntities(context.Background())
	assert.Equal(t, firstErr, secondErr)
}
