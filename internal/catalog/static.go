package catalog

import "github.com/posterme/backend/internal/models"

// Default returns the compiled-in persona catalog. These entries are fixed at
// build time; remote override records can reorder or hide them, but never
// duplicate them.
func Default() []models.Persona {
	return []models.Persona{
		{
			ID:           "noir-detective",
			Name:         "Noir Detective",
			Category:     models.CategoryMovie,
			Prompt:       "A moody black-and-white 1940s film noir movie poster. The subject wears a fedora and trench coat, lit by a single venetian-blind shadow, rain-slicked city street behind them. Bold serif title treatment at the bottom.",
			DisplayOrder: 1,
		},
		{
			ID:           "space-odyssey",
			Name:         "Space Odyssey",
			Category:     models.CategoryMovie,
			Prompt:       "An epic science-fiction movie poster. The subject in a detailed astronaut suit, helmet under one arm, standing before a ringed planet and a vast star field. Widescreen cinematic lighting, metallic title lettering.",
			DisplayOrder: 2,
		},
		{
			ID:           "western-outlaw",
			Name:         "Western Outlaw",
			Category:     models.CategoryMovie,
			Prompt:       "A sun-bleached spaghetti-western movie poster. The subject in a dusty poncho and wide-brimmed hat, squinting into the desert sun, tumbleweed and distant mesas behind. Distressed paper texture, red block lettering.",
			DisplayOrder: 3,
		},
		{
			ID:           "heist-crew",
			Name:         "Heist Crew",
			Category:     models.CategorySeries,
			Prompt:       "A slick streaming-series key art poster. The subject in a sharp suit and red mask pushed up on their forehead, city vault doors glowing behind them. High-contrast teal and crimson palette.",
			DisplayOrder: 4,
		},
		{
			ID:           "retro-sitcom",
			Name:         "Retro Sitcom",
			Category:     models.CategorySeries,
			Prompt:       "A cheerful 1990s sitcom title card poster. The subject laughing on a bright couch set, warm studio lighting, chunky rounded typography and a laugh-track-era color palette.",
			DisplayOrder: 5,
		},
		{
			ID:           "fantasy-saga",
			Name:         "Fantasy Saga",
			Category:     models.CategorySeries,
			Prompt:       "A sweeping high-fantasy series poster. The subject in ornate armor holding a rune-etched sword, a storm-wreathed castle and dragon silhouette in the background. Painterly texture, gold-foil title.",
			DisplayOrder: 6,
		},
		{
			ID:           "vlog-star",
			Name:         "Vlog Star",
			Category:     models.CategoryYouTube,
			Prompt:       "A high-energy video thumbnail poster. The subject pointing at the camera with an exaggerated surprised expression, saturated gradient background, bold outlined caption text and an arrow graphic.",
			DisplayOrder: 7,
		},
		{
			ID:           "gamer-legend",
			Name:         "Gamer Legend",
			Category:     models.CategoryYouTube,
			Prompt:       "A neon esports channel banner poster. The subject wearing a glowing headset, RGB-lit keyboard foreground, purple and cyan lightning effects, angular futuristic typography.",
			DisplayOrder: 8,
		},
	}
}
