package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

const projectCypher = `
MERGE (c:Customer {id: $customer_id})
SET c.compliance_score = $score,
    c.compliance_status = $status,
    c.critical_missing = $critical_missing,
    c.generated_at = $generated_at
WITH c
UNWIND $requirements AS req
MERGE (r:Requirement {document_type: req.document_type})
SET r.name = req.name, r.priority = req.priority
MERGE (c)-[s:REQUIREMENT_STATUS]->(r)
SET s.status = req.status, s.submitted = req.submitted, s.valid = req.valid
`

type runFunc func(ctx context.Context, cypher string, params map[string]any) error

// Projector mirrors each compliance summary as a Customer node linked to its
// Requirement nodes.
type Projector struct {
	driver neo4j.DriverWithContext
	run    runFunc
}

func New(ctx context.Context, uri, user, password, database string) (*Projector, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	var opts []neo4j.ExecuteQueryConfigurationOption
	if database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(database))
	}
	return &Projector{
		driver: driver,
		run: func(ctx context.Context, cypher string, params map[string]any) error {
			_, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer, opts...)
			return err
		},
	}, nil
}

func (p *Projector) Project(ctx context.Context, summary domain.ComplianceSummary) error {
	if err := p.run(ctx, projectCypher, projectParams(summary)); err != nil {
		return domain.WrapError(domain.ErrTemporary, "neo4j project summary", err)
	}
	return nil
}

func (p *Projector) Health(ctx context.Context) error {
	if p.driver == nil {
		return nil
	}
	return p.driver.VerifyConnectivity(ctx)
}

func (p *Projector) Close(ctx context.Context) error {
	if p.driver == nil {
		return nil
	}
	return p.driver.Close(ctx)
}

func projectParams(summary domain.ComplianceSummary) map[string]any {
	reqs := make([]any, 0, len(summary.Requirements))
	for _, r := range summary.Requirements {
		reqs = append(reqs, map[string]any{
			"document_type": string(r.DocumentType),
			"name":          r.Name,
			"priority":      string(r.Priority),
			"status":        string(r.Status),
			"submitted":     int64(r.Submitted),
			"valid":         int64(r.Valid),
		})
	}
	return map[string]any{
		"customer_id":      summary.CustomerID,
		"score":            summary.Score,
		"status":           string(summary.Status),
		"critical_missing": summary.CriticalMissing,
		"generated_at":     summary.GeneratedAt.UTC().Format(time.RFC3339Nano),
		"requirements":     reqs,
	}
}
