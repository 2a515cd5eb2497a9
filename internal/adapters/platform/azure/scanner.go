package azure

import (
	"context"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

const ScannerTypeAzure = "azure"

const defaultRequestsPerSecond = 10

type Config struct {
	SubscriptionID    string  `yaml:"subscription_id" mapstructure:"subscription_id" validate:"required"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// Scanner reads live resource state for one resource group through the Azure
// Resource Manager APIs. Service listings run concurrently; a shared rate
// limiter keeps the combined request rate below the ARM throttling threshold.
type Scanner struct {
	accounts *armstorage.AccountsClient
	vnets    *armnetwork.VirtualNetworksClient
	nsgs     *armnetwork.SecurityGroupsClient
	vms      *armcompute.VirtualMachinesClient
	vaults   *armkeyvault.VaultsClient

	limiter *rate.Limiter
	logger  ports.Logger
}

func NewScanner(cfg Config, cred azcore.TokenCredential, logger ports.Logger) (*Scanner, error) {
	if cfg.SubscriptionID == "" {
		return nil, errors.New(errors.CodeConfigValidation, "azure scanner requires a subscription ID")
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	accounts, err := armstorage.NewAccountsClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePlatformAuthError, "failed to create storage accounts client")
	}
	vnets, err := armnetwork.NewVirtualNetworksClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePlatformAuthError, "failed to create virtual networks client")
	}
	nsgs, err := armnetwork.NewSecurityGroupsClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePlatformAuthError, "failed to create security groups client")
	}
	vms, err := armcompute.NewVirtualMachinesClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePlatformAuthError, "failed to create virtual machines client")
	}
	vaults, err := armkeyvault.NewVaultsClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePlatformAuthError, "failed to create key vaults client")
	}

	return &Scanner{
		accounts: accounts,
		vnets:    vnets,
		nsgs:     nsgs,
		vms:      vms,
		vaults:   vaults,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		logger:   logger,
	}, nil
}

// DefaultCredential resolves credentials through the standard Azure chain:
// environment variables, workload identity, managed identity, then the CLI.
func DefaultCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodePlatformAuthError,
			"failed to build Azure credential chain",
			"Run 'az login' or set AZURE_CLIENT_ID, AZURE_TENANT_ID and AZURE_CLIENT_SECRET.")
	}
	return cred, nil
}

func (s *Scanner) Type() string { return ScannerTypeAzure }

func (s *Scanner) ScanResourceGroup(ctx context.Context, resourceGroup string) ([]domain.RawEntity, []domain.Diagnostic, error) {
	if resourceGroup == "" {
		return nil, nil, errors.New(errors.CodeConfigValidation, "resource group cannot be empty")
	}

	var (
		mu          sync.Mutex
		entities    []domain.RawEntity
		diagnostics []domain.Diagnostic
	)
	collect := func(ents []domain.RawEntity, diags []domain.Diagnostic) {
		mu.Lock()
		defer mu.Unlock()
		entities = append(entities, ents...)
		diagnostics = append(diagnostics, diags...)
	}

	g, childCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ents, err := s.scanStorageAccounts(childCtx, resourceGroup)
		if err != nil {
			return err
		}
		collect(ents, nil)
		return nil
	})
	g.Go(func() error {
		ents, err := s.scanVirtualNetworks(childCtx, resourceGroup)
		if err != nil {
			return err
		}
		collect(ents, nil)
		return nil
	})
	g.Go(func() error {
		ents, err := s.scanSecurityGroups(childCtx, resourceGroup)
		if err != nil {
			return err
		}
		collect(ents, nil)
		return nil
	})
	g.Go(func() error {
		ents, diags, err := s.scanVirtualMachines(childCtx, resourceGroup)
		if err != nil {
			return err
		}
		collect(ents, diags)
		return nil
	})
	g.Go(func() error {
		ents, err := s.scanKeyVaults(childCtx, resourceGroup)
		if err != nil {
			return err
		}
		collect(ents, nil)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	s.logger.Debugf(ctx, "Scanned %d live entities in resource group %q", len(entities), resourceGroup)
	return entities, diagnostics, nil
}

func (s *Scanner) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, errors.CodePlatformAPIError, "rate limiter wait interrupted")
	}
	return nil
}
