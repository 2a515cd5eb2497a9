package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

func (s *Scanner) scanKeyVaults(ctx context.Context, resourceGroup string) ([]domain.RawEntity, error) {
	var entities []domain.RawEntity

	pager := s.vaults.NewListByResourceGroupPager(resourceGroup, nil)
	for pager.More() {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePlatformAPIError, "failed listing key vaults")
		}
		for _, vault := range page.Value {
			if vault == nil || vault.Name == nil {
				continue
			}
			entities = append(entities, mapKeyVault(vault))
		}
	}
	return entities, nil
}

func mapKeyVault(vault *armkeyvault.Vault) domain.RawEntity {
	props := make(map[string]any)
	setString(props, "location", vault.Location)

	if p := vault.Properties; p != nil {
		setString(props, "tenant_id", p.TenantID)
		if p.SKU != nil {
			setEnum(props, "sku_name", p.SKU.Name)
		}
		setBool(props, "enabled_for_deployment", p.EnabledForDeployment)
		setBool(props, "enabled_for_disk_encryption", p.EnabledForDiskEncryption)
		setBool(props, "enabled_for_template_deployment", p.EnabledForTemplateDeployment)
		setInt32(props, "soft_delete_retention_days", p.SoftDeleteRetentionInDays)
		setBool(props, "purge_protection_enabled", p.EnablePurgeProtection)
		setBool(props, "enable_rbac_authorization", p.EnableRbacAuthorization)

		if len(p.AccessPolicies) > 0 {
			policies := make([]any, 0, len(p.AccessPolicies))
			for _, ap := range p.AccessPolicies {
				if ap == nil {
					continue
				}
				policy := make(map[string]any)
				setString(policy, "tenant_id", ap.TenantID)
				setString(policy, "object_id", ap.ObjectID)
				if perms := ap.Permissions; perms != nil {
					if len(perms.Keys) > 0 {
						policy["key_permissions"] = enumPtrs(perms.Keys)
					}
					if len(perms.Secrets) > 0 {
						policy["secret_permissions"] = enumPtrs(perms.Secrets)
					}
					if len(perms.Certificates) > 0 {
						policy["certificate_permissions"] = enumPtrs(perms.Certificates)
					}
				}
				policies = append(policies, policy)
			}
			props["access_policies"] = policies
		}

		if acls := p.NetworkACLs; acls != nil {
			networkACLs := make(map[string]any)
			setEnum(networkACLs, "bypass", acls.Bypass)
			setEnum(networkACLs, "default_action", acls.DefaultAction)
			if len(acls.IPRules) > 0 {
				ipRules := make([]any, 0, len(acls.IPRules))
				for _, r := range acls.IPRules {
					if r != nil && r.Value != nil {
						ipRules = append(ipRules, *r.Value)
					}
				}
				networkACLs["ip_rules"] = ipRules
			}
			props["network_acls"] = networkACLs
		}
	}

	if tags := tagsToMap(vault.Tags); tags != nil {
		props["tags"] = tags
	}

	return domain.RawEntity{
		Kind:       domain.KindKeyVault,
		Name:       deref(vault.Name),
		Source:     domain.SourceLive,
		Location:   deref(vault.ID),
		Region:     deref(vault.Location),
		Properties: props,
	}
}

func enumPtrs[T ~string](ptrs []*T) []any {
	out := make([]any, 0, len(ptrs))
	for _, p := range ptrs {
		if p != nil {
			out = append(out, string(*p))
		}
	}
	return out
}
