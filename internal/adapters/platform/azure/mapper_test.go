package azure

import (
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkinetics/azdrift/internal/core/diffing"
	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/normalize"
	"github.com/cloudkinetics/azdrift/internal/core/policy"
)

// assertNoDrift pushes a mapper's output and an equivalent declared entity
// through the same normalize and diff path the engine uses. The two sides are
// in different vocabularies on purpose: the declared fixture uses azurerm
// names, the live one whatever the mapper emits. Any diff means the mapper
// and the policy tables disagree on the canonical vocabulary.
func assertNoDrift(t *testing.T, declared, live domain.RawEntity) {
	t.Helper()
	pol := policy.Default()
	norm := normalize.New(pol)

	declaredEntity, diags := norm.Normalize(declared)
	require.Empty(t, diags)
	liveEntity, diags := norm.Normalize(live)
	require.Empty(t, diags)

	diffs := diffing.New(pol).Diff(declaredEntity, liveEntity)
	assert.Empty(t, diffs, "declared and live describe the same resource")
}

func declaredRaw(kind domain.EntityKind, name string, props map[string]any) domain.RawEntity {
	return domain.RawEntity{
		Kind:       kind,
		Name:       name,
		Source:     domain.SourceDeclared,
		Location:   "main.tf:1",
		Region:     "eastus",
		Properties: props,
	}
}

func TestMapStorageAccount_MatchesDeclared(t *testing.T) {
	live := mapStorageAccount(&armstorage.Account{
		Name:     to.Ptr("stprodapp01"),
		ID:       to.Ptr("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/stprodapp01"),
		Location: to.Ptr("eastus"),
		SKU:      &armstorage.SKU{Name: to.Ptr(armstorage.SKUNameStandardGRS)},
		Kind:     to.Ptr(armstorage.KindStorageV2),
		Properties: &armstorage.AccountProperties{
			EnableHTTPSTrafficOnly: to.Ptr(true),
			MinimumTLSVersion:      to.Ptr(armstorage.MinimumTLSVersionTLS12),
			AllowBlobPublicAccess:  to.Ptr(false),
			AccessTier:             to.Ptr(armstorage.AccessTierHot),
			NetworkRuleSet: &armstorage.NetworkRuleSet{
				DefaultAction: to.Ptr(armstorage.DefaultActionDeny),
				Bypass:        to.Ptr(armstorage.BypassAzureServices),
				IPRules: []*armstorage.IPRule{
					{IPAddressOrRange: to.Ptr("10.0.0.0/24")},
					{IPAddressOrRange: to.Ptr("192.168.1.0/24")},
				},
			},
		},
		Tags: map[string]*string{"environment": to.Ptr("production")},
	})

	declared := declaredRaw(domain.KindStorageAccount, "stprodapp01", map[string]any{
		"location":                        "eastus",
		"account_tier":                    "Standard",
		"account_replication_type":        "GRS",
		"account_kind":                    "StorageV2",
		"enable_https_traffic_only":       true,
		"min_tls_version":                 "TLS1_2",
		"allow_nested_items_to_be_public": false,
		"access_tier":                     "Hot",
		"network_rules": []any{map[string]any{
			"default_action": "Deny",
			"bypass":         "AzureServices",
			// Reverse order from live; ip_rules carry set semantics.
			"ip_rules": []any{"192.168.1.0/24", "10.0.0.0/24"},
		}},
		"tags": map[string]any{"environment": "production"},
	})

	assertNoDrift(t, declared, live)
}

func TestMapVirtualNetwork_MatchesDeclared(t *testing.T) {
	live := mapVirtualNetwork(&armnetwork.VirtualNetwork{
		Name:     to.Ptr("vnet-prod"),
		ID:       to.Ptr("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet-prod"),
		Location: to.Ptr("eastus"),
		Properties: &armnetwork.VirtualNetworkPropertiesFormat{
			AddressSpace: &armnetwork.AddressSpace{
				AddressPrefixes: []*string{to.Ptr("10.0.0.0/16")},
			},
			DhcpOptions: &armnetwork.DhcpOptions{
				DNSServers: []*string{to.Ptr("10.0.0.4")},
			},
			EnableDdosProtection: to.Ptr(false),
			Subnets: []*armnetwork.Subnet{
				{
					Name: to.Ptr("snet-app"),
					Properties: &armnetwork.SubnetPropertiesFormat{
						AddressPrefix: to.Ptr("10.0.1.0/24"),
					},
				},
			},
		},
	})

	declared := declaredRaw(domain.KindVirtualNetwork, "vnet-prod", map[string]any{
		"location":               "eastus",
		"address_space":          []any{"10.0.0.0/16"},
		"dns_servers":            []any{"10.0.0.4"},
		"enable_ddos_protection": false,
		"subnet": []any{map[string]any{
			"name":           "snet-app",
			"address_prefix": "10.0.1.0/24",
		}},
	})

	assertNoDrift(t, declared, live)
}

func TestMapSecurityGroup_MatchesDeclared(t *testing.T) {
	live := mapSecurityGroup(&armnetwork.SecurityGroup{
		Name:     to.Ptr("nsg-web"),
		ID:       to.Ptr("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Network/networkSecurityGroups/nsg-web"),
		Location: to.Ptr("eastus"),
		Properties: &armnetwork.SecurityGroupPropertiesFormat{
			SecurityRules: []*armnetwork.SecurityRule{
				{
					Name: to.Ptr("allow-https"),
					Properties: &armnetwork.SecurityRulePropertiesFormat{
						Priority:                 to.Ptr(int32(100)),
						Direction:                to.Ptr(armnetwork.SecurityRuleDirectionInbound),
						Access:                   to.Ptr(armnetwork.SecurityRuleAccessAllow),
						Protocol:                 to.Ptr(armnetwork.SecurityRuleProtocolTCP),
						SourcePortRange:          to.Ptr("*"),
						DestinationPortRange:     to.Ptr("443"),
						SourceAddressPrefix:      to.Ptr("*"),
						DestinationAddressPrefix: to.Ptr("*"),
					},
				},
			},
		},
	})

	declared := declaredRaw(domain.KindNetworkSecurityGroup, "nsg-web", map[string]any{
		"location": "eastus",
		"security_rule": []any{map[string]any{
			"name":                       "allow-https",
			"priority":                   int64(100),
			"direction":                  "Inbound",
			"access":                     "Allow",
			"protocol":                   "Tcp",
			"source_port_range":          "*",
			"destination_port_range":     "443",
			"source_address_prefix":      "*",
			"destination_address_prefix": "*",
		}},
	})

	assertNoDrift(t, declared, live)
}

func TestMapVirtualMachine_MatchesDeclared(t *testing.T) {
	vm := &armcompute.VirtualMachine{
		Name:     to.Ptr("vm-web-01"),
		ID:       to.Ptr("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm-web-01"),
		Location: to.Ptr("eastus"),
		Properties: &armcompute.VirtualMachineProperties{
			HardwareProfile: &armcompute.HardwareProfile{
				VMSize: to.Ptr(armcompute.VirtualMachineSizeTypes("Standard_B2s")),
			},
			OSProfile: &armcompute.OSProfile{
				AdminUsername: to.Ptr("azureuser"),
				ComputerName:  to.Ptr("vmweb01"),
				LinuxConfiguration: &armcompute.LinuxConfiguration{
					DisablePasswordAuthentication: to.Ptr(false),
				},
			},
			StorageProfile: &armcompute.StorageProfile{
				OSDisk: &armcompute.OSDisk{
					Name:    to.Ptr("osdisk-vm-web-01"),
					Caching: to.Ptr(armcompute.CachingTypesReadWrite),
					ManagedDisk: &armcompute.ManagedDiskParameters{
						StorageAccountType: to.Ptr(armcompute.StorageAccountTypesStandardLRS),
					},
				},
				ImageReference: &armcompute.ImageReference{
					Publisher: to.Ptr("Canonical"),
					Offer:     to.Ptr("0001-com-ubuntu-server-jammy"),
					SKU:       to.Ptr("22_04-lts"),
					Version:   to.Ptr("latest"),
				},
			},
		},
	}

	kind, ok := virtualMachineKind(vm)
	require.True(t, ok)
	require.Equal(t, domain.KindLinuxVirtualMachine, kind)

	declared := declaredRaw(domain.KindLinuxVirtualMachine, "vm-web-01", map[string]any{
		"location":                        "eastus",
		"size":                            "Standard_B2s",
		"admin_username":                  "azureuser",
		"computer_name":                   "vmweb01",
		"disable_password_authentication": false,
		"os_disk": []any{map[string]any{
			"name":                 "osdisk-vm-web-01",
			"caching":              "ReadWrite",
			"storage_account_type": "Standard_LRS",
		}},
		"source_image_reference": []any{map[string]any{
			"publisher": "Canonical",
			"offer":     "0001-com-ubuntu-server-jammy",
			"sku":       "22_04-lts",
			"version":   "latest",
		}},
	})

	assertNoDrift(t, declared, mapVirtualMachine(vm, kind))
}

func TestMapKeyVault_MatchesDeclared(t *testing.T) {
	live := mapKeyVault(&armkeyvault.Vault{
		Name:     to.Ptr("kv-prod"),
		ID:       to.Ptr("/subscriptions/s/resourceGroups/rg/providers/Microsoft.KeyVault/vaults/kv-prod"),
		Location: to.Ptr("eastus"),
		Properties: &armkeyvault.VaultProperties{
			TenantID:                     to.Ptr("00000000-0000-0000-0000-000000000001"),
			SKU:                          &armkeyvault.SKU{Name: to.Ptr(armkeyvault.SKUNameStandard)},
			EnabledForDeployment:         to.Ptr(false),
			EnabledForDiskEncryption:     to.Ptr(true),
			EnabledForTemplateDeployment: to.Ptr(false),
			SoftDeleteRetentionInDays:    to.Ptr(int32(90)),
			EnablePurgeProtection:        to.Ptr(true),
			AccessPolicies: []*armkeyvault.AccessPolicyEntry{
				{
					TenantID: to.Ptr("00000000-0000-0000-0000-000000000001"),
					ObjectID: to.Ptr("11111111-1111-1111-1111-111111111111"),
					Permissions: &armkeyvault.Permissions{
						Keys:    []*armkeyvault.KeyPermissions{to.Ptr(armkeyvault.KeyPermissionsGet), to.Ptr(armkeyvault.KeyPermissionsList)},
						Secrets: []*armkeyvault.SecretPermissions{to.Ptr(armkeyvault.SecretPermissionsGet)},
					},
				},
			},
			NetworkACLs: &armkeyvault.NetworkRuleSet{
				Bypass:        to.Ptr(armkeyvault.NetworkRuleBypassOptionsAzureServices),
				DefaultAction: to.Ptr(armkeyvault.NetworkRuleActionDeny),
				IPRules: []*armkeyvault.IPRule{
					{Value: to.Ptr("10.0.0.0/24")},
					{Value: to.Ptr("192.168.1.0/24")},
				},
			},
		},
	})

	declared := declaredRaw(domain.KindKeyVault, "kv-prod", map[string]any{
		"location":                        "eastus",
		"tenant_id":                       "00000000-0000-0000-0000-000000000001",
		"sku_name":                        "standard",
		"enabled_for_deployment":          false,
		"enabled_for_disk_encryption":     true,
		"enabled_for_template_deployment": false,
		"soft_delete_retention_days":      int64(90),
		"purge_protection_enabled":        true,
		"access_policy": []any{map[string]any{
			"tenant_id":          "00000000-0000-0000-0000-000000000001",
			"object_id":          "11111111-1111-1111-1111-111111111111",
			"key_permissions":    []any{"Get", "List"},
			"secret_permissions": []any{"Get"},
		}},
		"network_acls": []any{map[string]any{
			"bypass":         "AzureServices",
			"default_action": "Deny",
			// Reverse order from live; ip_rules carry set semantics.
			"ip_rules": []any{"192.168.1.0/24", "10.0.0.0/24"},
		}},
	})

	assertNoDrift(t, declared, live)
}
