package worker

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/usecase"
)

var _ usecase.SyncUsecase = (*Client)(nil)

// Client forwards SyncUsecase calls to a Worker as messages.
type Client struct {
	w *Worker
}

func (c *Client) SetToken(token string) {
	_ = c.w.Send(context.Background(), Request{Op: OpSetToken, Token: token})
}

func (c *Client) HasToken() bool {
	return c.w.Send(context.Background(), Request{Op: OpHasToken}).HasToken
}

func (c *Client) Sync(ctx context.Context, force bool) error {
	return c.w.Send(ctx, Request{Op: OpSync, Force: force}).Err
}

func (c *Client) SyncUser(ctx context.Context, force bool) error {
	return c.w.Send(ctx, Request{Op: OpSyncUser, Force: force}).Err
}

func (c *Client) SyncSubjects(ctx context.Context, force bool) error {
	return c.w.Send(ctx, Request{Op: OpSyncSubjects, Force: force}).Err
}

func (c *Client) SyncAssignments(ctx context.Context, force bool) error {
	return c.w.Send(ctx, Request{Op: OpSyncAssignments, Force: force}).Err
}

func (c *Client) SyncStudyMaterials(ctx context.Context, force bool) error {
	return c.w.Send(ctx, Request{Op: OpSyncStudyMaterials, Force: force}).Err
}

func (c *Client) MigrateSubjects(ctx context.Context, force bool) (usecase.MigrationReport, error) {
	res := c.w.Send(ctx, Request{Op: OpMigrateSubjects, Force: force})
	return res.Migration, res.Err
}

func (c *Client) MigrateAssignments(ctx context.Context, force bool) (usecase.MigrationReport, error) {
	res := c.w.Send(ctx, Request{Op: OpMigrateAssignments, Force: force})
	return res.Migration, res.Err
}

func (c *Client) SyncEncounterItems(ctx context.Context) (usecase.PushReport, error) {
	res := c.w.Send(ctx, Request{Op: OpSyncEncounterItems})
	return res.Push, res.Err
}

func (c *Client) PopulateKana(ctx context.Context) (int, error) {
	res := c.w.Send(ctx, Request{Op: OpPopulateKana})
	return res.Count, res.Err
}

func (c *Client) ClearData(ctx context.Context) error {
	return c.w.Send(ctx, Request{Op: OpClearData}).Err
}

func (c *Client) StartAssignment(ctx context.Context, assignmentID int64) error {
	return c.w.Send(ctx, Request{Op: OpStartAssignment, AssignmentID: assignmentID}).Err
}

func (c *Client) ApplyReviewOutcome(ctx context.Context, assignmentID int64, correct bool) error {
	return c.w.Send(ctx, Request{Op: OpApplyReviewOutcome, AssignmentID: assignmentID, Correct: correct}).Err
}
