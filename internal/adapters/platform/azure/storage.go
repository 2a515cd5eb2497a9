package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

func (s *Scanner) scanStorageAccounts(ctx context.Context, resourceGroup string) ([]domain.RawEntity, error) {
	var entities []domain.RawEntity

	pager := s.accounts.NewListByResourceGroupPager(resourceGroup, nil)
	for pager.More() {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePlatformAPIError, "failed listing storage accounts")
		}
		for _, account := range page.Value {
			if account == nil || account.Name == nil {
				continue
			}
			entities = append(entities, mapStorageAccount(account))
		}
	}
	return entities, nil
}

func mapStorageAccount(account *armstorage.Account) domain.RawEntity {
	props := make(map[string]any)
	setString(props, "location", account.Location)

	if account.SKU != nil && account.SKU.Name != nil {
		tier, replication := splitSKUName(string(*account.SKU.Name))
		props["account_tier"] = tier
		if replication != "" {
			props["account_replication_type"] = replication
		}
	}
	if account.Kind != nil {
		props["account_kind"] = string(*account.Kind)
	}

	if p := account.Properties; p != nil {
		setBool(props, "enable_https_traffic_only", p.EnableHTTPSTrafficOnly)
		setEnum(props, "min_tls_version", p.MinimumTLSVersion)
		setBool(props, "allow_blob_public_access", p.AllowBlobPublicAccess)
		setEnum(props, "access_tier", p.AccessTier)

		if nrs := p.NetworkRuleSet; nrs != nil {
			rules := make(map[string]any)
			setEnum(rules, "default_action", nrs.DefaultAction)
			setEnum(rules, "bypass", nrs.Bypass)
			if len(nrs.IPRules) > 0 {
				ipRules := make([]any, 0, len(nrs.IPRules))
				for _, r := range nrs.IPRules {
					if r != nil && r.IPAddressOrRange != nil {
						ipRules = append(ipRules, *r.IPAddressOrRange)
					}
				}
				rules["ip_rules"] = ipRules
			}
			props["network_rules"] = rules
		}
	}

	if tags := tagsToMap(account.Tags); tags != nil {
		props["tags"] = tags
	}

	return domain.RawEntity{
		Kind:       domain.KindStorageAccount,
		Name:       deref(account.Name),
		Source:     domain.SourceLive,
		Location:   deref(account.ID),
		Region:     deref(account.Location),
		Properties: props,
	}
}
