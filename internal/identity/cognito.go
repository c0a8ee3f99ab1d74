package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

// CognitoAPI is the subset of the Cognito user pool client used by the adapter.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, params *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
	AdminListGroupsForUser(ctx context.Context, params *cip.AdminListGroupsForUserInput, optFns ...func(*cip.Options)) (*cip.AdminListGroupsForUserOutput, error)
	AdminAddUserToGroup(ctx context.Context, params *cip.AdminAddUserToGroupInput, optFns ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error)
	AdminRemoveUserFromGroup(ctx context.Context, params *cip.AdminRemoveUserFromGroupInput, optFns ...func(*cip.Options)) (*cip.AdminRemoveUserFromGroupOutput, error)
	ListUsers(ctx context.Context, params *cip.ListUsersInput, optFns ...func(*cip.Options)) (*cip.ListUsersOutput, error)
	AdminCreateUser(ctx context.Context, params *cip.AdminCreateUserInput, optFns ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error)
	AdminSetUserPassword(ctx context.Context, params *cip.AdminSetUserPasswordInput, optFns ...func(*cip.Options)) (*cip.AdminSetUserPasswordOutput, error)
	AdminDeleteUser(ctx context.Context, params *cip.AdminDeleteUserInput, optFns ...func(*cip.Options)) (*cip.AdminDeleteUserOutput, error)
	AdminEnableUser(ctx context.Context, params *cip.AdminEnableUserInput, optFns ...func(*cip.Options)) (*cip.AdminEnableUserOutput, error)
	AdminDisableUser(ctx context.Context, params *cip.AdminDisableUserInput, optFns ...func(*cip.Options)) (*cip.AdminDisableUserOutput, error)
}

var (
	_ CognitoAPI  = (*cip.Client)(nil)
	_ Provider    = (*CognitoProvider)(nil)
	_ GroupLookup = (*CognitoProvider)(nil)
)

const maxListUsersLimit = 60

// CognitoOptions configures the adapter.
type CognitoOptions struct {
	UserPoolID     string
	ClientID       string
	Timeout        time.Duration
	GroupCacheSize int
	GroupCacheTTL  time.Duration
	Logger         *zap.Logger
	Observer       CallObserver
}

// CognitoProvider implements Provider against an Amazon Cognito user pool.
type CognitoProvider struct {
	api      CognitoAPI
	poolID   string
	clientID string
	timeout  time.Duration
	groups   *lru.LRU[string, []string]
	logger   *zap.Logger
	observer CallObserver
}

// NewCognitoProvider builds the adapter. Every call is bounded by opts.Timeout.
func NewCognitoProvider(api CognitoAPI, opts CognitoOptions) *CognitoProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.GroupCacheSize <= 0 {
		opts.GroupCacheSize = 1024
	}
	if opts.GroupCacheTTL <= 0 {
		opts.GroupCacheTTL = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &CognitoProvider{
		api:      api,
		poolID:   opts.UserPoolID,
		clientID: opts.ClientID,
		timeout:  opts.Timeout,
		groups:   lru.NewLRU[string, []string](opts.GroupCacheSize, nil, opts.GroupCacheTTL),
		logger:   opts.Logger,
		observer: opts.Observer,
	}
}

func (p *CognitoProvider) Authenticate(ctx context.Context, username, password string) (*Tokens, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	var out *cip.InitiateAuthOutput
	err := p.do(ctx, "initiate_auth", callLogin, func(ctx context.Context) (err error) {
		out, err = p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
			AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
			ClientId:       aws.String(p.clientID),
			AuthParameters: map[string]string{"USERNAME": username, "PASSWORD": password},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return tokensFrom(out, "")
}

func (p *CognitoProvider) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, auth.ErrInvalidRefreshToken
	}

	var out *cip.InitiateAuthOutput
	err := p.do(ctx, "refresh_token", callRefresh, func(ctx context.Context) (err error) {
		out, err = p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
			AuthFlow:       types.AuthFlowTypeRefreshTokenAuth,
			ClientId:       aws.String(p.clientID),
			AuthParameters: map[string]string{"REFRESH_TOKEN": refreshToken},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return tokensFrom(out, refreshToken)
}

// RevokeAll signs the user out globally. Tokens the provider already considers
// invalid are treated as signed out.
func (p *CognitoProvider) RevokeAll(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}
	return p.do(ctx, "global_sign_out", callSignOut, func(ctx context.Context) error {
		_, err := p.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(accessToken)})
		return err
	})
}

// GroupsFor is ListGroupsFor behind the membership cache.
func (p *CognitoProvider) GroupsFor(ctx context.Context, username string) ([]string, error) {
	if groups, ok := p.groups.Get(username); ok {
		return groups, nil
	}
	groups, err := p.ListGroupsFor(ctx, username)
	if err != nil {
		return nil, err
	}
	p.groups.Add(username, groups)
	return groups, nil
}

func (p *CognitoProvider) ListGroupsFor(ctx context.Context, username string) ([]string, error) {
	groups := []string{}
	var next *string
	for {
		var out *cip.AdminListGroupsForUserOutput
		err := p.read(ctx, "admin_list_groups_for_user", func(ctx context.Context) (err error) {
			out, err = p.api.AdminListGroupsForUser(ctx, &cip.AdminListGroupsForUserInput{
				UserPoolId: aws.String(p.poolID),
				Username:   aws.String(username),
				NextToken:  next,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, g := range out.Groups {
			groups = append(groups, aws.ToString(g.GroupName))
		}
		if aws.ToString(out.NextToken) == "" {
			return groups, nil
		}
		next = out.NextToken
	}
}

func (p *CognitoProvider) AddToGroup(ctx context.Context, username, group string) error {
	defer p.groups.Remove(username)
	return p.do(ctx, "admin_add_user_to_group", callAdmin, func(ctx context.Context) error {
		_, err := p.api.AdminAddUserToGroup(ctx, &cip.AdminAddUserToGroupInput{
			UserPoolId: aws.String(p.poolID),
			Username:   aws.String(username),
			GroupName:  aws.String(group),
		})
		return err
	})
}

func (p *CognitoProvider) RemoveFromGroup(ctx context.Context, username, group string) error {
	defer p.groups.Remove(username)
	return p.do(ctx, "admin_remove_user_from_group", callAdmin, func(ctx context.Context) error {
		_, err := p.api.AdminRemoveUserFromGroup(ctx, &cip.AdminRemoveUserFromGroupInput{
			UserPoolId: aws.String(p.poolID),
			Username:   aws.String(username),
			GroupName:  aws.String(group),
		})
		return err
	})
}

func (p *CognitoProvider) ListUsers(ctx context.Context, limit int32, nextToken string) (*UserPage, error) {
	if limit <= 0 || limit > maxListUsersLimit {
		limit = maxListUsersLimit
	}
	input := &cip.ListUsersInput{
		UserPoolId: aws.String(p.poolID),
		Limit:      aws.Int32(limit),
	}
	if nextToken != "" {
		input.PaginationToken = aws.String(nextToken)
	}

	var out *cip.ListUsersOutput
	err := p.read(ctx, "list_users", func(ctx context.Context) (err error) {
		out, err = p.api.ListUsers(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	page := &UserPage{Users: make([]User, 0, len(out.Users)), NextToken: aws.ToString(out.PaginationToken)}
	for _, u := range out.Users {
		page.Users = append(page.Users, userFromType(u))
	}
	return page, nil
}

// CreateUser creates the account without sending an invitation, then sets its
// password and initial group when given.
func (p *CognitoProvider) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, apperrors.NewValidationError("username is required", nil)
	}

	attrs := []types.AttributeType{}
	if in.Email != "" {
		attrs = append(attrs,
			types.AttributeType{Name: aws.String("email"), Value: aws.String(in.Email)},
			types.AttributeType{Name: aws.String("email_verified"), Value: aws.String("true")},
		)
	}

	var out *cip.AdminCreateUserOutput
	err := p.do(ctx, "admin_create_user", callAdmin, func(ctx context.Context) (err error) {
		out, err = p.api.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
			UserPoolId:     aws.String(p.poolID),
			Username:       aws.String(in.Username),
			UserAttributes: attrs,
			MessageAction:  types.MessageActionTypeSuppress,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	user := User{Username: in.Username, Email: in.Email, Enabled: true}
	if out.User != nil {
		user = userFromType(*out.User)
	}

	if in.Password != "" {
		if err := p.ResetPassword(ctx, in.Username, in.Password, true); err != nil {
			p.logger.Warn("user created without password", zap.String("username", in.Username), zap.Error(err))
			return nil, err
		}
	}
	if in.Group != "" {
		if err := p.AddToGroup(ctx, in.Username, in.Group); err != nil {
			p.logger.Warn("user created without group", zap.String("username", in.Username), zap.Error(err))
			return nil, err
		}
	}
	return &user, nil
}

func (p *CognitoProvider) DeleteUser(ctx context.Context, username string) error {
	defer p.groups.Remove(username)
	return p.do(ctx, "admin_delete_user", callAdmin, func(ctx context.Context) error {
		_, err := p.api.AdminDeleteUser(ctx, &cip.AdminDeleteUserInput{
			UserPoolId: aws.String(p.poolID),
			Username:   aws.String(username),
		})
		return err
	})
}

func (p *CognitoProvider) EnableUser(ctx context.Context, username string) error {
	return p.do(ctx, "admin_enable_user", callAdmin, func(ctx context.Context) error {
		_, err := p.api.AdminEnableUser(ctx, &cip.AdminEnableUserInput{
			UserPoolId: aws.String(p.poolID),
			Username:   aws.String(username),
		})
		return err
	})
}

func (p *CognitoProvider) DisableUser(ctx context.Context, username string) error {
	return p.do(ctx, "admin_disable_user", callAdmin, func(ctx context.Context) error {
		_, err := p.api.AdminDisableUser(ctx, &cip.AdminDisableUserInput{
			UserPoolId: aws.String(p.poolID),
			Username:   aws.String(username),
		})
		return err
	})
}

func (p *CognitoProvider) ResetPassword(ctx context.Context, username, password string, permanent bool) error {
	if password == "" {
		return apperrors.NewValidationError("password is required", nil)
	}
	return p.do(ctx, "admin_set_user_password", callAdmin, func(ctx context.Context) error {
		_, err := p.api.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
			UserPoolId: aws.String(p.poolID),
			Username:   aws.String(username),
			Password:   aws.String(password),
			Permanent:  permanent,
		})
		return err
	})
}

type callKind int

const (
	callLogin callKind = iota
	callRefresh
	callSignOut
	callAdmin
)

// do runs fn under the per-call timeout and maps its error.
func (p *CognitoProvider) do(ctx context.Context, op string, kind callKind, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := classify(kind, fn(callCtx))
	p.observe(op, start, err)
	return err
}

// read is do with a single retry when the provider was unreachable.
func (p *CognitoProvider) read(ctx context.Context, op string, fn func(context.Context) error) error {
	err := p.do(ctx, op, callAdmin, fn)
	if errors.Is(err, auth.ErrProviderUnavailable) && ctx.Err() == nil {
		p.logger.Debug("retrying provider read", zap.String("operation", op))
		err = p.do(ctx, op, callAdmin, fn)
	}
	return err
}

func (p *CognitoProvider) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(apperrors.ToDomainError(err).Code)
		if errors.Is(err, auth.ErrProviderUnavailable) || errors.Is(err, auth.ErrProviderFailure) {
			p.logger.Warn("identity provider call failed", zap.String("operation", op), zap.Error(err))
		}
	}
	if p.observer != nil {
		p.observer.ObserveProviderCall(op, outcome, time.Since(start))
	}
}

func classify(kind callKind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return auth.ErrProviderUnavailable.Wrap(err)
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return auth.ErrProviderUnavailable.Wrap(err)
	}

	switch apiErr.ErrorCode() {
	case "NotAuthorizedException":
		switch kind {
		case callLogin:
			return auth.ErrInvalidCredentials
		case callRefresh:
			return auth.ErrInvalidRefreshToken
		case callSignOut:
			return nil
		default:
			return auth.ErrProviderForbidden.Wrap(err)
		}
	case "UserNotFoundException":
		if kind == callLogin {
			return auth.ErrInvalidCredentials
		}
		if kind == callRefresh {
			return auth.ErrInvalidRefreshToken
		}
		return auth.ErrUserNotFound
	case "UserNotConfirmedException", "PasswordResetRequiredException":
		return auth.ErrChallengeRequired.WithDetails(map[string]any{"reason": apiErr.ErrorCode()})
	case "ResourceNotFoundException":
		return auth.ErrGroupNotFound.Wrap(err)
	case "UsernameExistsException", "AliasExistsException":
		return auth.ErrProviderConflict
	case "InvalidPasswordException", "InvalidParameterException":
		return apperrors.NewValidationError(apiErr.ErrorMessage(), map[string]any{"provider_code": apiErr.ErrorCode()})
	case "TooManyRequestsException", "LimitExceededException", "InternalErrorException":
		return auth.ErrProviderUnavailable.Wrap(err)
	}

	if apiErr.ErrorFault() == smithy.FaultServer {
		return auth.ErrProviderUnavailable.Wrap(err)
	}
	return auth.ErrProviderFailure.Wrap(err)
}

func tokensFrom(out *cip.InitiateAuthOutput, refreshToken string) (*Tokens, error) {
	if out.AuthenticationResult == nil {
		if out.ChallengeName != "" {
			return nil, auth.ErrChallengeRequired.WithDetails(map[string]any{"challenge": string(out.ChallengeName)})
		}
		return nil, auth.ErrProviderFailure.WithMessage("identity provider returned no tokens")
	}

	res := out.AuthenticationResult
	tokens := &Tokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		TokenType:    aws.ToString(res.TokenType),
		ExpiresIn:    time.Duration(res.ExpiresIn) * time.Second,
	}
	// REFRESH_TOKEN_AUTH does not rotate the refresh token.
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}

func userFromType(u types.UserType) User {
	user := User{
		Username:  aws.ToString(u.Username),
		Enabled:   u.Enabled,
		Status:    string(u.UserStatus),
		CreatedAt: u.UserCreateDate,
	}
	for _, attr := range u.Attributes {
		if aws.ToString(attr.Name) == "email" {
			user.Email = aws.ToString(attr.Value)
		}
	}
	return user
}
