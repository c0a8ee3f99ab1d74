package identity

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

// fakeCognito records calls and answers from the configured funcs.
type fakeCognito struct {
	calls map[string]int

	initiateAuth  func(ctx context.Context, in *cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error)
	globalSignOut func(ctx context.Context, in *cip.GlobalSignOutInput) error
	listGroups    func(ctx context.Context, in *cip.AdminListGroupsForUserInput) (*cip.AdminListGroupsForUserOutput, error)
	addToGroup    func(ctx context.Context, in *cip.AdminAddUserToGroupInput) error
	listUsers     func(ctx context.Context, in *cip.ListUsersInput) (*cip.ListUsersOutput, error)
	createUser    func(ctx context.Context, in *cip.AdminCreateUserInput) (*cip.AdminCreateUserOutput, error)
	setPassword   func(ctx context.Context, in *cip.AdminSetUserPasswordInput) error
	simpleAdmin   func(ctx context.Context, op string) error
}

func newFakeCognito() *fakeCognito {
	return &fakeCognito{calls: map[string]int{}}
}

func (f *fakeCognito) InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	f.calls["InitiateAuth"]++
	return f.initiateAuth(ctx, in)
}

func (f *fakeCognito) GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, _ ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error) {
	f.calls["GlobalSignOut"]++
	if f.globalSignOut != nil {
		if err := f.globalSignOut(ctx, in); err != nil {
			return nil, err
		}
	}
	return &cip.GlobalSignOutOutput{}, nil
}

func (f *fakeCognito) AdminListGroupsForUser(ctx context.Context, in *cip.AdminListGroupsForUserInput, _ ...func(*cip.Options)) (*cip.AdminListGroupsForUserOutput, error) {
	f.calls["AdminListGroupsForUser"]++
	return f.listGroups(ctx, in)
}

func (f *fakeCognito) AdminAddUserToGroup(ctx context.Context, in *cip.AdminAddUserToGroupInput, _ ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error) {
	f.calls["AdminAddUserToGroup"]++
	if f.addToGroup != nil {
		if err := f.addToGroup(ctx, in); err != nil {
			return nil, err
		}
	}
	return &cip.AdminAddUserToGroupOutput{}, nil
}

func (f *fakeCognito) AdminRemoveUserFromGroup(ctx context.Context, _ *cip.AdminRemoveUserFromGroupInput, _ ...func(*cip.Options)) (*cip.AdminRemoveUserFromGroupOutput, error) {
	return &cip.AdminRemoveUserFromGroupOutput{}, f.admin(ctx, "AdminRemoveUserFromGroup")
}

func (f *fakeCognito) ListUsers(ctx context.Context, in *cip.ListUsersInput, _ ...func(*cip.Options)) (*cip.ListUsersOutput, error) {
	f.calls["ListUsers"]++
	return f.listUsers(ctx, in)
}

func (f *fakeCognito) AdminCreateUser(ctx context.Context, in *cip.AdminCreateUserInput, _ ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error) {
	f.calls["AdminCreateUser"]++
	return f.createUser(ctx, in)
}

func (f *fakeCognito) AdminSetUserPassword(ctx context.Context, in *cip.AdminSetUserPasswordInput, _ ...func(*cip.Options)) (*cip.AdminSetUserPasswordOutput, error) {
	f.calls["AdminSetUserPassword"]++
	if f.setPassword != nil {
		if err := f.setPassword(ctx, in); err != nil {
			return nil, err
		}
	}
	return &cip.AdminSetUserPasswordOutput{}, nil
}

func (f *fakeCognito) AdminDeleteUser(ctx context.Context, _ *cip.AdminDeleteUserInput, _ ...func(*cip.Options)) (*cip.AdminDeleteUserOutput, error) {
	return &cip.AdminDeleteUserOutput{}, f.admin(ctx, "AdminDeleteUser")
}

func (f *fakeCognito) AdminEnableUser(ctx context.Context, _ *cip.AdminEnableUserInput, _ ...func(*cip.Options)) (*cip.AdminEnableUserOutput, error) {
	return &cip.AdminEnableUserOutput{}, f.admin(ctx, "AdminEnableUser")
}

func (f *fakeCognito) AdminDisableUser(ctx context.Context, _ *cip.AdminDisableUserInput, _ ...func(*cip.Options)) (*cip.AdminDisableUserOutput, error) {
	return &cip.AdminDisableUserOutput{}, f.admin(ctx, "AdminDisableUser")
}

func (f *fakeCognito) admin(ctx context.Context, op string) error {
	f.calls[op]++
	if f.simpleAdmin != nil {
		return f.simpleAdmin(ctx, op)
	}
	return nil
}

func apiError(code string, fault smithy.ErrorFault) error {
	return &smithy.OperationError{
		ServiceID:     "Cognito Identity Provider",
		OperationName: "Test",
		Err:           &smithy.GenericAPIError{Code: code, Message: code + " message", Fault: fault},
	}
}

func newTestProvider(api CognitoAPI) *CognitoProvider {
	return NewCognitoProvider(api, CognitoOptions{
		UserPoolID: "us-east-1_pool",
		ClientID:   "client-id",
		Timeout:    50 * time.Millisecond,
	})
}

func TestAuthenticateReturnsTokens(t *testing.T) {
	api := newFakeCognito()
	api.initiateAuth = func(_ context.Context, in *cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error) {
		assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, in.AuthFlow)
		assert.Equal(t, "client-id", aws.ToString(in.ClientId))
		assert.Equal(t, "admin", in.AuthParameters["USERNAME"])
		return &cip.InitiateAuthOutput{AuthenticationResult: &types.AuthenticationResultType{
			AccessToken:  aws.String("access"),
			IdToken:      aws.String("id"),
			RefreshToken: aws.String("refresh"),
			TokenType:    aws.String("Bearer"),
			ExpiresIn:    3600,
		}}, nil
	}

	tokens, err := newTestProvider(api).Authenticate(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "access", tokens.AccessToken)
	assert.Equal(t, "refresh", tokens.RefreshToken)
	assert.Equal(t, time.Hour, tokens.ExpiresIn)
}

func TestAuthenticateErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		respond func(ctx context.Context) (*cip.InitiateAuthOutput, error)
		want    error
	}{
		{
			name:    "wrong password",
			respond: func(context.Context) (*cip.InitiateAuthOutput, error) { return nil, apiError("NotAuthorizedException", smithy.FaultClient) },
			want:    auth.ErrInvalidCredentials,
		},
		{
			name:    "unknown user",
			respond: func(context.Context) (*cip.InitiateAuthOutput, error) { return nil, apiError("UserNotFoundException", smithy.FaultClient) },
			want:    auth.ErrInvalidCredentials,
		},
		{
			name:    "unconfirmed",
			respond: func(context.Context) (*cip.InitiateAuthOutput, error) { return nil, apiError("UserNotConfirmedException", smithy.FaultClient) },
			want:    auth.ErrChallengeRequired,
		},
		{
			name: "challenge",
			respond: func(context.Context) (*cip.InitiateAuthOutput, error) {
				return &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}, nil
			},
			want: auth.ErrChallengeRequired,
		},
		{
			name: "timeout",
			respond: func(ctx context.Context) (*cip.InitiateAuthOutput, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			want: auth.ErrProviderUnavailable,
		},
		{
			name: "network",
			respond: func(context.Context) (*cip.InitiateAuthOutput, error) {
				return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
			},
			want: auth.ErrProviderUnavailable,
		},
		{
			name:    "throttled",
			respond: func(context.Context) (*cip.InitiateAuthOutput, error) { return nil, apiError("TooManyRequestsException", smithy.FaultClient) },
			want:    auth.ErrProviderUnavailable,
		},
		{
			name:    "server fault",
			respond: func(context.Context) (*cip.InitiateAuthOutput, error) { return nil, apiError("SomethingBroke", smithy.FaultServer) },
			want:    auth.ErrProviderUnavailable,
		},
		{
			name:    "other client fault",
			respond: func(context.Context) (*cip.InitiateAuthOutput, error) { return nil, apiError("UnexpectedLambdaException", smithy.FaultClient) },
			want:    auth.ErrProviderFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeCognito()
			api.initiateAuth = func(ctx context.Context, _ *cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error) {
				return tt.respond(ctx)
			}
			tokens, err := newTestProvider(api).Authenticate(context.Background(), "admin", "pw")
			assert.Nil(t, tokens)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthenticateTimeoutIsNotInvalidCredentials(t *testing.T) {
	api := newFakeCognito()
	api.initiateAuth = func(ctx context.Context, _ *cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := newTestProvider(api).Authenticate(context.Background(), "admin", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, auth.ErrInvalidCredentials))
	assert.Equal(t, "PROVIDER_UNAVAILABLE", apperrors.ToDomainError(err).Code)
}

func TestRefresh(t *testing.T) {
	api := newFakeCognito()
	api.initiateAuth = func(_ context.Context, in *cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error) {
		if in.AuthParameters["REFRESH_TOKEN"] == "revoked" {
			return nil, apiError("NotAuthorizedException", smithy.FaultClient)
		}
		assert.Equal(t, types.AuthFlowTypeRefreshTokenAuth, in.AuthFlow)
		return &cip.InitiateAuthOutput{AuthenticationResult: &types.AuthenticationResultType{
			AccessToken: aws.String("new-access"),
			ExpiresIn:   3600,
		}}, nil
	}
	p := newTestProvider(api)

	tokens, err := p.Refresh(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "new-access", tokens.AccessToken)
	assert.Equal(t, "good", tokens.RefreshToken)

	_, err = p.Refresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	_, err = p.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestRevokeAllIsIdempotent(t *testing.T) {
	api := newFakeCognito()
	signedOut := false
	api.globalSignOut = func(context.Context, *cip.GlobalSignOutInput) error {
		if signedOut {
			return apiError("NotAuthorizedException", smithy.FaultClient)
		}
		signedOut = true
		return nil
	}
	p := newTestProvider(api)

	require.NoError(t, p.RevokeAll(context.Background(), "access"))
	require.NoError(t, p.RevokeAll(context.Background(), "access"))
	assert.Equal(t, 2, api.calls["GlobalSignOut"])
}

func TestGroupsForCachesAndInvalidates(t *testing.T) {
	api := newFakeCognito()
	api.listGroups = func(_ context.Context, in *cip.AdminListGroupsForUserInput) (*cip.AdminListGroupsForUserOutput, error) {
		if in.NextToken == nil {
			return &cip.AdminListGroupsForUserOutput{
				Groups:    []types.GroupType{{GroupName: aws.String("admin")}},
				NextToken: aws.String("page-2"),
			}, nil
		}
		return &cip.AdminListGroupsForUserOutput{Groups: []types.GroupType{{GroupName: aws.String("viewer")}}}, nil
	}
	p := newTestProvider(api)
	ctx := context.Background()

	groups, err := p.GroupsFor(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "viewer"}, groups)
	assert.Equal(t, 2, api.calls["AdminListGroupsForUser"])

	_, err = p.GroupsFor(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls["AdminListGroupsForUser"])

	require.NoError(t, p.AddToGroup(ctx, "maria", "manager"))
	_, err = p.GroupsFor(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, 4, api.calls["AdminListGroupsForUser"])
}

func TestReadsRetryOnceWritesNever(t *testing.T) {
	api := newFakeCognito()
	api.listUsers = func(context.Context, *cip.ListUsersInput) (*cip.ListUsersOutput, error) {
		if api.calls["ListUsers"] == 1 {
			return nil, apiError("InternalErrorException", smithy.FaultServer)
		}
		return &cip.ListUsersOutput{Users: []types.UserType{{
			Username:   aws.String("maria"),
			Enabled:    true,
			UserStatus: types.UserStatusTypeConfirmed,
			Attributes: []types.AttributeType{{Name: aws.String("email"), Value: aws.String("maria@example.com")}},
		}}}, nil
	}
	api.simpleAdmin = func(context.Context, string) error {
		return apiError("InternalErrorException", smithy.FaultServer)
	}
	p := newTestProvider(api)

	page, err := p.ListUsers(context.Background(), 0, "")
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "maria@example.com", page.Users[0].Email)
	assert.Equal(t, "CONFIRMED", page.Users[0].Status)
	assert.Equal(t, 2, api.calls["ListUsers"])

	err = p.DisableUser(context.Background(), "maria")
	assert.ErrorIs(t, err, auth.ErrProviderUnavailable)
	assert.Equal(t, 1, api.calls["AdminDisableUser"])
}

func TestAdminErrorMapping(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{code: "UserNotFoundException", want: auth.ErrUserNotFound},
		{code: "ResourceNotFoundException", want: auth.ErrGroupNotFound},
		{code: "NotAuthorizedException", want: auth.ErrProviderForbidden},
		{code: "UsernameExistsException", want: auth.ErrProviderConflict},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			api := newFakeCognito()
			api.simpleAdmin = func(context.Context, string) error { return apiError(tt.code, smithy.FaultClient) }

			err := newTestProvider(api).RemoveFromGroup(context.Background(), "maria", "admin")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	api := newFakeCognito()
	api.setPassword = func(context.Context, *cip.AdminSetUserPasswordInput) error {
		return apiError("InvalidPasswordException", smithy.FaultClient)
	}
	err := newTestProvider(api).ResetPassword(context.Background(), "maria", "short", true)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestCreateUser(t *testing.T) {
	api := newFakeCognito()
	api.createUser = func(_ context.Context, in *cip.AdminCreateUserInput) (*cip.AdminCreateUserOutput, error) {
		assert.Equal(t, types.MessageActionTypeSuppress, in.MessageAction)
		assert.Len(t, in.UserAttributes, 2)
		return &cip.AdminCreateUserOutput{User: &types.UserType{
			Username:   in.Username,
			Enabled:    true,
			UserStatus: types.UserStatusTypeForceChangePassword,
			Attributes: in.UserAttributes,
		}}, nil
	}
	api.setPassword = func(_ context.Context, in *cip.AdminSetUserPasswordInput) error {
		assert.True(t, in.Permanent)
		return nil
	}
	var group string
	api.addToGroup = func(_ context.Context, in *cip.AdminAddUserToGroupInput) error {
		group = aws.ToString(in.GroupName)
		return nil
	}

	user, err := newTestProvider(api).CreateUser(context.Background(), NewUser{
		Username: "admin",
		Email:    "admin@delivery-platform.com",
		Password: "admin123",
		Group:    "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@delivery-platform.com", user.Email)
	assert.Equal(t, "admin", group)
	assert.Equal(t, 1, api.calls["AdminSetUserPassword"])
}
