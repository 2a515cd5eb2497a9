package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

func (s *Scanner) scanVirtualNetworks(ctx context.Context, resourceGroup string) ([]domain.RawEntity, error) {
	var entities []domain.RawEntity

	pager := s.vnets.NewListPager(resourceGroup, nil)
	for pager.More() {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePlatformAPIError, "failed listing virtual networks")
		}
		for _, vnet := range page.Value {
			if vnet == nil || vnet.Name == nil {
				continue
			}
			entities = append(entities, mapVirtualNetwork(vnet))
		}
	}
	return entities, nil
}

func mapVirtualNetwork(vnet *armnetwork.VirtualNetwork) domain.RawEntity {
	props := make(map[string]any)
	setString(props, "location", vnet.Location)

	if p := vnet.Properties; p != nil {
		if p.AddressSpace != nil && len(p.AddressSpace.AddressPrefixes) > 0 {
			props["address_space"] = stringPtrs(p.AddressSpace.AddressPrefixes)
		}
		if p.DhcpOptions != nil && len(p.DhcpOptions.DNSServers) > 0 {
			props["dns_servers"] = stringPtrs(p.DhcpOptions.DNSServers)
		}
		setBool(props, "enable_ddos_protection", p.EnableDdosProtection)

		if len(p.Subnets) > 0 {
			subnets := make([]any, 0, len(p.Subnets))
			for _, sn := range p.Subnets {
				if sn == nil {
					continue
				}
				subnet := make(map[string]any)
				setString(subnet, "name", sn.Name)
				if sp := sn.Properties; sp != nil {
					setString(subnet, "address_prefix", sp.AddressPrefix)
					if len(sp.AddressPrefixes) > 0 {
						subnet["address_prefixes"] = stringPtrs(sp.AddressPrefixes)
					}
				}
				subnets = append(subnets, subnet)
			}
			props["subnets"] = subnets
		}
	}

	if tags := tagsToMap(vnet.Tags); tags != nil {
		props["tags"] = tags
	}

	return domain.RawEntity{
		Kind:       domain.KindVirtualNetwork,
		Name:       deref(vnet.Name),
		Source:     domain.SourceLive,
		Location:   deref(vnet.ID),
		Region:     deref(vnet.Location),
		Properties: props,
	}
}

func (s *Scanner) scanSecurityGroups(ctx context.Context, resourceGroup string) ([]domain.RawEntity, error) {
	var entities []domain.RawEntity

	pager := s.nsgs.NewListPager(resourceGroup, nil)
	for pager.More() {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePlatformAPIError, "failed listing network security groups")
		}
		for _, nsg := range page.Value {
			if nsg == nil || nsg.Name == nil {
				continue
			}
			entities = append(entities, mapSecurityGroup(nsg))
		}
	}
	return entities, nil
}

func mapSecurityGroup(nsg *armnetwork.SecurityGroup) domain.RawEntity {
	props := make(map[string]any)
	setString(props, "location", nsg.Location)

	if p := nsg.Properties; p != nil && len(p.SecurityRules) > 0 {
		rules := make([]any, 0, len(p.SecurityRules))
		for _, sr := range p.SecurityRules {
			if sr == nil {
				continue
			}
			rule := make(map[string]any)
			setString(rule, "name", sr.Name)
			if rp := sr.Properties; rp != nil {
				setInt32(rule, "priority", rp.Priority)
				setEnum(rule, "direction", rp.Direction)
				setEnum(rule, "access", rp.Access)
				setEnum(rule, "protocol", rp.Protocol)
				setString(rule, "source_port_range", rp.SourcePortRange)
				setString(rule, "destination_port_range", rp.DestinationPortRange)
				setString(rule, "source_address_prefix", rp.SourceAddressPrefix)
				setString(rule, "destination_address_prefix", rp.DestinationAddressPrefix)
			}
			rules = append(rules, rule)
		}
		props["security_rules"] = rules
	}

	if tags := tagsToMap(nsg.Tags); tags != nil {
		props["tags"] = tags
	}

	return domain.RawEntity{
		Kind:       domain.KindNetworkSecurityGroup,
		Name:       deref(nsg.Name),
		Source:     domain.SourceLive,
		Location:   deref(nsg.ID),
		Region:     deref(nsg.Location),
		Properties: props,
	}
}
