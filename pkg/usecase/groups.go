package usecase

import (
	"context"

	"github.com/gighall/calsync/pkg/domain/interfaces"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/m-mizutani/goerr/v2"
)

// GroupUseCase exposes the account's distribution lists
type GroupUseCase struct {
	repo  interfaces.Repository
	graph graph.Service
	token *TokenUseCase
}

func NewGroupUseCase(repo interfaces.Repository, graphSvc graph.Service, token *TokenUseCase) *GroupUseCase {
	return &GroupUseCase{
		repo:  repo,
		graph: graphSvc,
		token: token,
	}
}

func (uc *GroupUseCase) account(ctx context.Context, accountID types.AccountID) (string, error) {
	account, err := uc.repo.Account().Get(ctx, accountID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to load account", goerr.V("accountID", accountID))
	}

	if !uc.token.EnsureValid(ctx, account) {
		return "", goerr.Wrap(ErrNotConnected, "cannot query directory", goerr.V("accountID", accountID))
	}

	return account.AccessToken, nil
}

// List returns the mail-enabled distribution lists visible to the account
func (uc *GroupUseCase) List(ctx context.Context, accountID types.AccountID) ([]*graph.Group, error) {
	token, err := uc.account(ctx, accountID)
	if err != nil {
		return nil, err
	}

	groups, err := uc.graph.ListGroups(ctx, token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list distribution lists", goerr.V("accountID", accountID))
	}

	return groups, nil
}

// Get returns one distribution list along with its members
func (uc *GroupUseCase) Get(ctx context.Context, accountID types.AccountID, groupID string) (*graph.Group, []*graph.GroupMember, error) {
	token, err := uc.account(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}

	group, err := uc.graph.GetGroup(ctx, token, groupID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to get distribution list",
			goerr.V("accountID", accountID), goerr.V("groupID", groupID))
	}

	members, err := uc.graph.GetGroupMembers(ctx, token, groupID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to get group members",
			goerr.V("accountID", accountID), goerr.V("groupID", groupID))
	}

	group.MemberCount = len(members)

	return group, members, nil
}
