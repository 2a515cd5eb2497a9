package policy

import (
	"github.com/cloudkinetics/azdrift/internal/core/domain"
)

// Default returns the built-in policy for the supported Azure resource kinds.
// Canonical paths use the live-system vocabulary; declared (azurerm) names
// are translated on ingestion so the differ only ever sees one vocabulary.
func Default() *Policy {
	return &Policy{
		maxDepth: 32,

		nameTranslations: map[domain.EntityKind]map[string]string{
			domain.KindStorageAccount: {
				"account_tier":                    "account_tier",
				"account_replication_type":        "account_replication_type",
				"access_tier":                     "access_tier",
				"enable_https_traffic_only":       "enable_https_traffic_only",
				"https_traffic_only_enabled":      "enable_https_traffic_only",
				"min_tls_version":                 "min_tls_version",
				"allow_nested_items_to_be_public": "allow_blob_public_access",
				"network_rules":                   "network_rules",
			},
			domain.KindVirtualNetwork: {
				"address_space": "address_space",
				"dns_servers":   "dns_servers",
				"subnet":        "subnets",
			},
			domain.KindSubnet: {
				"address_prefixes": "address_prefixes",
				"address_prefix":   "address_prefix",
			},
			domain.KindNetworkSecurityGroup: {
				"security_rule": "security_rules",
			},
			domain.KindLinuxVirtualMachine: {
				"size":                            "vm_size",
				"admin_username":                  "os_profile.admin_username",
				"computer_name":                   "os_profile.computer_name",
				"disable_password_authentication": "os_profile.linux_configuration.disable_password_authentication",
				"os_disk":                         "storage_profile.os_disk",
				"source_image_reference":          "storage_profile.image_reference",
			},
			domain.KindWindowsVirtualMachine: {
				"size":                   "vm_size",
				"admin_username":         "os_profile.admin_username",
				"computer_name":          "os_profile.computer_name",
				"os_disk":                "storage_profile.os_disk",
				"source_image_reference": "storage_profile.image_reference",
			},
			domain.KindKeyVault: {
				"sku_name":                        "sku_name",
				"tenant_id":                       "tenant_id",
				"soft_delete_retention_days":      "soft_delete_retention_days",
				"purge_protection_enabled":        "purge_protection_enabled",
				"enabled_for_deployment":          "enabled_for_deployment",
				"enabled_for_disk_encryption":     "enabled_for_disk_encryption",
				"enabled_for_template_deployment": "enabled_for_template_deployment",
				"access_policy":                   "access_policies",
				"network_acls":                    "network_acls",
			},
		},

		setPaths: map[domain.EntityKind]map[string]struct{}{
			domain.KindStorageAccount: {
				"network_rules.ip_rules": {},
			},
			domain.KindVirtualNetwork: {
				"dns_servers": {},
				"subnets":     {},
			},
			domain.KindNetworkSecurityGroup: {
				"security_rules": {},
			},
			domain.KindKeyVault: {
				"access_policies":       {},
				"network_acls.ip_rules": {},
			},
		},

		setIdentityKeys: map[domain.EntityKind]map[string]string{
			domain.KindNetworkSecurityGroup: {
				"security_rules": "name",
			},
			domain.KindVirtualNetwork: {
				"subnets": "name",
			},
			domain.KindKeyVault: {
				"access_policies": "object_id",
			},
		},

		defaults: map[domain.EntityKind]map[string]domain.Value{
			domain.KindStorageAccount: {
				"enable_https_traffic_only": domain.Scalar(true),
				"min_tls_version":           domain.Scalar("TLS1_2"),
				"allow_blob_public_access":  domain.Scalar(false),
				"access_tier":               domain.Scalar("Hot"),
			},
			domain.KindVirtualNetwork: {
				"enable_ddos_protection": domain.Scalar(false),
			},
			domain.KindLinuxVirtualMachine: {
				"os_profile.linux_configuration.disable_password_authentication": domain.Scalar(true),
			},
			domain.KindKeyVault: {
				"soft_delete_retention_days":      domain.Scalar(7),
				"purge_protection_enabled":        domain.Scalar(false),
				"enabled_for_deployment":          domain.Scalar(false),
				"enabled_for_disk_encryption":     domain.Scalar(false),
				"enabled_for_template_deployment": domain.Scalar(false),
				"sku_name":                        domain.Scalar("standard"),
			},
		},

		diffKindDefaults: map[domain.DiffKind]domain.RiskLevel{
			domain.DiffAdded:      domain.RiskLow,
			domain.DiffChanged:    domain.RiskMedium,
			domain.DiffRemoved:    domain.RiskMedium,
			domain.DiffUnresolved: domain.RiskLow,
		},
		missingRisk:   domain.RiskMedium,
		unmanagedRisk: domain.RiskLow,

		riskRules: []RiskRule{
			// Network exposure and identity escalate regardless of kind.
			{PathPrefix: "security_rules", Level: domain.RiskHigh},
			{PathPrefix: "access_policies", Level: domain.RiskHigh},
			{PathPrefix: "network_rules", Level: domain.RiskHigh},
			{PathPrefix: "network_acls", Level: domain.RiskHigh},
			{PathPrefix: "os_profile.admin_username", Level: domain.RiskHigh},
			{PathPrefix: "os_profile.linux_configuration.disable_password_authentication", Level: domain.RiskHigh},

			// Encryption and transport hardening.
			{Kind: domain.KindStorageAccount, PathPrefix: "enable_https_traffic_only", Level: domain.RiskHigh},
			{Kind: domain.KindStorageAccount, PathPrefix: "min_tls_version", Level: domain.RiskHigh},
			{Kind: domain.KindStorageAccount, PathPrefix: "allow_blob_public_access", Level: domain.RiskHigh},
			{Kind: domain.KindKeyVault, PathPrefix: "purge_protection_enabled", Level: domain.RiskHigh},
			{Kind: domain.KindKeyVault, PathPrefix: "enabled_for_disk_encryption", Level: domain.RiskHigh},

			// Disruptive but recoverable.
			{PathPrefix: "location", Level: domain.RiskMedium},
			{PathPrefix: "address_space", Level: domain.RiskMedium},
			{PathPrefix: "address_prefixes", Level: domain.RiskMedium},
			{PathPrefix: "subnets", Level: domain.RiskMedium},
			{PathPrefix: "vm_size", Level: domain.RiskHigh},
			{Kind: domain.KindKeyVault, PathPrefix: "sku_name", Level: domain.RiskHigh},
			{Kind: domain.KindKeyVault, PathPrefix: "soft_delete_retention_days", Level: domain.RiskMedium},

			// Tag-only drift is informational.
			{PathPrefix: "tags.", Level: domain.RiskLow},
		},
	}
}
