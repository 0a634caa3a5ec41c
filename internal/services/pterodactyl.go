package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

const (
	provisionTimeout = 30 * time.Second
	eggCacheTTL      = time.Hour
)

// Provisioner creates panel accounts and servers for paid orders
type Provisioner interface {
	CreateAdminPanel(ctx context.Context, username string) (*PanelResult, error)
	CreateServer(ctx context.Context, username, productType string) (*PanelResult, error)
}

// PackageLimits are the RAM and disk (MB) sold with a tier; zero means unlimited
type PackageLimits struct {
	RAM  int `json:"ram"`
	Disk int `json:"disk"`
}

var packageTiers = map[string]PackageLimits{
	"1gb":  {RAM: 1024, Disk: 2048},
	"2gb":  {RAM: 2048, Disk: 4096},
	"3gb":  {RAM: 3072, Disk: 6144},
	"4gb":  {RAM: 4096, Disk: 8192},
	"5gb":  {RAM: 5120, Disk: 10240},
	"unli": {RAM: 0, Disk: 0},
}

// LimitsFor maps a product type to its resources. Unknown types get the 1gb tier.
func LimitsFor(productType string) PackageLimits {
	if limits, ok := packageTiers[productType]; ok {
		return limits
	}
	return packageTiers["1gb"]
}

// PanelUser is the subset of a Pterodactyl user returned to buyers
type PanelUser struct {
	ID        int    `json:"id"`
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RootAdmin bool   `json:"root_admin"`
}

// PanelServer is the subset of a Pterodactyl server returned to buyers
type PanelServer struct {
	ID         int             `json:"id"`
	UUID       string          `json:"uuid"`
	Identifier string          `json:"identifier"`
	Name       string          `json:"name"`
	Limits     json.RawMessage `json:"limits,omitempty"`
}

// PanelResult is what a buyer needs to log in to the provisioned panel
type PanelResult struct {
	User     PanelUser    `json:"user"`
	Server   *PanelServer `json:"server,omitempty"`
	Password string       `json:"password"`
	Email    string       `json:"email"`
	LoginURL string       `json:"loginUrl,omitempty"`
}

// Egg is the startup definition the server is created from
type Egg struct {
	DockerImage string `json:"docker_image"`
	Startup     string `json:"startup"`
}

// PterodactylService wraps the Pterodactyl application API
type PterodactylService struct {
	domain   string
	appKey   string
	location int
	nest     int
	egg      int
	cache    Cache
	client   *http.Client
}

func NewPterodactylService(domain, appKey string, location, nest, egg int, cache Cache) *PterodactylService {
	return &PterodactylService{
		domain:   strings.TrimRight(domain, "/"),
		appKey:   appKey,
		location: location,
		nest:     nest,
		egg:      egg,
		cache:    cache,
		client:   &http.Client{Timeout: provisionTimeout},
	}
}

type panelError struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

type panelEnvelope struct {
	Errors     []panelError    `json:"errors"`
	Attributes json.RawMessage `json:"attributes"`
}

func (s *PterodactylService) makeRequest(ctx context.Context, step, method, endpoint string, payload interface{}, dest interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &ProvisioningError{Step: step, Err: fmt.Errorf("failed to marshal payload: %w", err)}
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.domain+endpoint, bodyReader)
	if err != nil {
		return &ProvisioningError{Step: step, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+s.appKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &ProvisioningError{Step: step, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProvisioningError{Step: step, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var env panelEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &ProvisioningError{Step: step, Err: fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))}
	}
	if len(env.Errors) > 0 {
		return &ProvisioningError{Step: step, Detail: env.Errors[0].Detail}
	}
	if resp.StatusCode >= 400 {
		return &ProvisioningError{Step: step, Err: fmt.Errorf("request failed with status %d", resp.StatusCode)}
	}
	if dest != nil {
		if err := json.Unmarshal(env.Attributes, dest); err != nil {
			return &ProvisioningError{Step: step, Err: fmt.Errorf("malformed attributes: %w", err)}
		}
	}
	return nil
}

func (s *PterodactylService) createUser(ctx context.Context, username, email, password string, rootAdmin bool) (*PanelUser, error) {
	payload := map[string]interface{}{
		"username":   username,
		"email":      email,
		"first_name": username,
		"last_name":  "User",
		"password":   password,
		"root_admin": rootAdmin,
	}
	var user PanelUser
	if err := s.makeRequest(ctx, "create user", http.MethodPost, "/api/application/users", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PterodactylService) lookupEgg(ctx context.Context) (Egg, error) {
	key := fmt.Sprintf("egg:%d:%d", s.nest, s.egg)
	return GetOrSet(ctx, s.cache, key, eggCacheTTL, func() (Egg, error) {
		var egg Egg
		endpoint := fmt.Sprintf("/api/application/nests/%d/eggs/%d", s.nest, s.egg)
		err := s.makeRequest(ctx, "egg lookup", http.MethodGet, endpoint, nil, &egg)
		return egg, err
	})
}

// CreateServer creates an end-user account and a server sized by productType
func (s *PterodactylService) CreateServer(ctx context.Context, username, productType string) (*PanelResult, error) {
	limits := LimitsFor(productType)
	password, err := panelPassword(username)
	if err != nil {
		return nil, &ProvisioningError{Step: "generate password", Err: err}
	}
	email := username + "@panel.com"

	user, err := s.createUser(ctx, username, email, password, false)
	if err != nil {
		return nil, err
	}

	egg, err := s.lookupEgg(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"name":         username + "-server",
		"user":         user.ID,
		"egg":          s.egg,
		"docker_image": egg.DockerImage,
		"startup":      egg.Startup,
		"environment": map[string]string{
			"INST":        "npm",
			"USER_UPLOAD": "0",
			"AUTO_UPDATE": "0",
			"CMD_RUN":     "npm start",
		},
		"limits": map[string]int{
			"memory": limits.RAM,
			"swap":   0,
			"disk":   limits.Disk,
			"io":     500,
			"cpu":    100,
		},
		"feature_limits": map[string]int{
			"databases":   5,
			"backups":     5,
			"allocations": 5,
		},
		"deploy": map[string]interface{}{
			"locations":    []int{s.location},
			"dedicated_ip": false,
			"port_range":   []string{},
		},
	}

	var server PanelServer
	if err := s.makeRequest(ctx, "create server", http.MethodPost, "/api/application/servers", payload, &server); err != nil {
		return nil, err
	}

	return &PanelResult{
		User:     *user,
		Server:   &server,
		Password: password,
		Email:    email,
		LoginURL: s.domain,
	}, nil
}

// CreateAdminPanel creates a root admin account
func (s *PterodactylService) CreateAdminPanel(ctx context.Context, username string) (*PanelResult, error) {
	password, err := panelPassword(username)
	if err != nil {
		return nil, &ProvisioningError{Step: "generate password", Err: err}
	}
	email := username + "@admin.com"

	user, err := s.createUser(ctx, username, email, password, true)
	if err != nil {
		return nil, err
	}

	return &PanelResult{
		User:     *user,
		Password: password,
		Email:    email,
		LoginURL: s.domain,
	}, nil
}

// panelPassword is the username followed by three random digits
func panelPassword(username string) (string, error) {
	digits, err := randomString("1234567890", 3)
	if err != nil {
		return "", err
	}
	return username + digits, nil
}

func randomString(alphabet string, n int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}
	return sb.String(), nil
}
