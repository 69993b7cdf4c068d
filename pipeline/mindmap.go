package pipeline

import (
	"fmt"

	"github.com/summerstudio/go-meeting-queue/models"
)

// buildMindmap lays the analysis out as a graph: meeting at the center,
// chapters directly attached, action items and blockers under hub nodes.
func buildMindmap(title string, chapters []models.Chapter,
	actionItems []models.ActionItem, blockers []models.Blocker) models.Mindmap {

	mindmap := models.Mindmap{
		CenterNode: models.MindmapNode{ID: "root", Label: title, Type: "root"},
		Nodes:      []models.MindmapNode{},
		Edges:      []models.MindmapEdge{},
	}

	for _, ch := range chapters {
		mindmap.Nodes = append(mindmap.Nodes, models.MindmapNode{
			ID:    ch.ChapterID,
			Label: ch.Title,
			Type:  "chapter",
		})
		mindmap.Edges = append(mindmap.Edges, models.MindmapEdge{From: "root", To: ch.ChapterID})
	}

	if len(actionItems) > 0 {
		mindmap.Nodes = append(mindmap.Nodes, models.MindmapNode{ID: "tasks", Label: "Action Items", Type: "hub"})
		mindmap.Edges = append(mindmap.Edges, models.MindmapEdge{From: "root", To: "tasks"})

		for i, it := range actionItems {
			id := fmt.Sprintf("task-%03d", i)
			mindmap.Nodes = append(mindmap.Nodes, models.MindmapNode{
				ID:    id,
				Label: truncate(it.Task, 60),
				Type:  "task",
			})
			mindmap.Edges = append(mindmap.Edges, models.MindmapEdge{From: "tasks", To: id})
		}
	}

	if len(blockers) > 0 {
		mindmap.Nodes = append(mindmap.Nodes, models.MindmapNode{ID: "blockers", Label: "Blockers", Type: "hub"})
		mindmap.Edges = append(mindmap.Edges, models.MindmapEdge{From: "root", To: "blockers"})

		for i, bl := range blockers {
			id := fmt.Sprintf("blocker-%03d", i)
			mindmap.Nodes = append(mindmap.Nodes, models.MindmapNode{
				ID:    id,
				Label: truncate(bl.Blocker, 60),
				Type:  "blocker",
			})
			mindmap.Edges = append(mindmap.Edges, models.MindmapEdge{From: "blockers", To: id})
		}
	}

	return mindmap
}
