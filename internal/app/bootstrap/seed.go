// internal/app/bootstrap/seed.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/profiles"
	"github.com/dalemusser/clubhub/internal/app/store/submissions"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// catalogEpoch is the createdAt of every catalog entry, so reseeding does
// not reorder them.
var catalogEpoch = time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)

type catalogEntry struct {
	id, title, author string
	payload           models.ResourcePayload
}

var resourceCatalog = []catalogEntry{
	{"fusion-airfoil-generator", "Airfoil Generator", "Autodesk App Store", models.ResourcePayload{
		Description: "Generates NACA airfoil shapes directly into your sketches for wing and propeller design studies.",
		Category:    models.ResourcePlugins,
		Link:        "https://apps.autodesk.com/FUSION/en/Detail/Index?id=1569210467479959341",
		Tags:        []string{"Fusion 360", "Design Plugin", "Aerodynamics"},
	}},
	{"fusion-static-stress", "Built-in Static Stress", "Fusion 360 Simulation Workspace", models.ResourcePayload{
		Description: "The built-in solver for basic structural stress analysis on components.",
		Category:    models.ResourcePlugins,
		Link:        "https://help.autodesk.com/view/fusion360/ENU/?guid=SIM-CONCEPT-STATIC-STRESS",
		Tags:        []string{"Fusion 360", "FEA", "Built-in"},
	}},
	{"fusion-mesh-workspace", "Mesh Workspace", "Fusion 360 Design Workspace", models.ResourcePayload{
		Description: "Tools for editing, repairing and preparing meshes for 3D printing.",
		Category:    models.ResourcePlugins,
		Link:        "https://help.autodesk.com/view/fusion360/ENU/?guid=GUID-B3456B5A-26A7-4632-A95B-653E55755536",
		Tags:        []string{"Fusion 360", "Design", "3D Printing"},
	}},
	{"fusion-simscale-addin", "SimScale Add-in", "Autodesk App Store", models.ResourcePayload{
		Description: "Sends models to the SimScale web platform for CFD and advanced FEA.",
		Category:    models.ResourcePlugins,
		Link:        "https://www.simscale.com/integrations/fusion-360/",
		Tags:        []string{"Fusion 360", "CFD", "FEA"},
	}},
	{"nasa-beginners-guide-aeronautics", "Beginner's Guide to Aeronautics", "NASA Glenn Research Center", models.ResourcePayload{
		Description: "Reference pages on lift, drag, propulsion and rocketry written for students.",
		Category:    models.ResourceResearchPapers,
		Link:        "https://www1.grc.nasa.gov/beginners-guide-to-aeronautics/",
		Tags:        []string{"Aerodynamics", "Propulsion", "Reference"},
	}},
	{"nasa-3d-resources", "NASA 3D Resources", "NASA", models.ResourcePayload{
		Description: "Printable models of spacecraft, rovers and instruments.",
		Category:    models.Resource3DDesigns,
		Link:        "https://nasa3d.arc.nasa.gov/",
		Tags:        []string{"3D Printing", "Spacecraft"},
	}},
}

// seedResources upserts the built-in resource catalog as approved
// resources. Ids are fixed, so running it again rewrites the same documents.
func seedResources(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	store := submissions.New(deps.Docs)
	for _, e := range resourceCatalog {
		payload := e.payload
		sub := models.Submission{
			ID:         e.id,
			Kind:       models.KindResource,
			Title:      e.title,
			AuthorName: e.author,
			CreatedAt:  catalogEpoch,
			Status:     models.SubmissionApproved,
			Resource:   &payload,
		}
		if err := store.Upsert(ctx, sub); err != nil {
			return err
		}
	}
	logger.Info("resource catalog seeded", zap.Int("count", len(resourceCatalog)))
	return nil
}

// ensureSuperAdmin makes email an approved super_admin with upload rights,
// creating the profile if none exists. The identity is linked on first
// sign-in, which finds the profile by email.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = models.NormalizeEmail(email)
	store := profiles.New(deps.Docs)

	p, err := store.Find(ctx, email)
	if err != nil {
		return err
	}
	if p == nil {
		np := models.NewProfile("", email, "Super Admin", "", time.Now().UTC())
		p = &np
		logger.Info("creating super admin profile", zap.String("email", email))
	} else if p.Role == models.RoleSuperAdmin && p.Status == models.ProfileApproved && p.CanUpload {
		return nil
	} else {
		logger.Info("promoting profile to super admin",
			zap.String("email", email),
			zap.String("from_role", string(p.Role)))
	}

	p.Role = models.RoleSuperAdmin
	p.Status = models.ProfileApproved
	p.CanUpload = true
	return store.Upsert(ctx, *p)
}
