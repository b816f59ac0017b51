package muses

// DefaultCollection returns the built-in seed archive used whenever no
// durable snapshot exists or the stored payload cannot be parsed. Every call
// builds a fresh value so callers can never alias shared seed data.
func DefaultCollection() Collection {
	seed := Collection{
		{
			ID:           "1",
			Name:         "Moka",
			MainCategory: MainCategoryCelebrity,
			SubCategory:  SubCategoryKPopGroup,
			GroupName:    "ILLIT",
			InstagramURL: "https://www.instagram.com/illit_official/",
			MainImage:    "https://image.pollinations.ai/prompt/kpop%20idol%20selfie%20black%20straight%20hair%20soft%20lighting?width=800&height=1000&nologo=true&seed=101",
			GalleryImages: []GalleryItem{
				{URL: "https://image.pollinations.ai/prompt/kpop%20idol%20pink%20fuzzy%20hoodie%20paws%20up?width=800&height=1000&nologo=true&seed=202", Likes: 48210, Comments: 392},
				{URL: "https://image.pollinations.ai/prompt/kpop%20idol%20black%20beanie%20striped%20sweater%20holding%20doll?width=800&height=1000&nologo=true&seed=303", Likes: 31547, Comments: 214},
				{URL: "https://image.pollinations.ai/prompt/kpop%20idol%20winking%20white%20outfit%20kitchen%20flash%20photo?width=800&height=1000&nologo=true&seed=404", Likes: 27093, Comments: 178},
				{URL: "https://image.pollinations.ai/prompt/kpop%20idol%20close%20up%20selfie%20black%20bangs?width=800&height=1000&nologo=true&seed=505", Likes: 19984, Comments: 131},
			},
			Tags: []string{"HumanCappuccino", "GatewayFairy", "DualityQueen", "Visuals"},
			Info: PersonInfo{
				Birthdate:   "2004-10-08",
				Height:      "Undisclosed",
				MBTI:        "ISFP",
				Hobbies:     []string{"Watching films", "Dessert hunting"},
				Description: "The calm anchor of the group who turns into a master of stage expression the moment the lights come up. The fancam eye-contact moments alone explain the fandom.",
			},
		},
		{
			ID:           "2",
			Name:         "Lee Chaeyoung",
			MainCategory: MainCategoryCelebrity,
			SubCategory:  SubCategoryKPopGroup,
			GroupName:    "fromis_9",
			InstagramURL: "https://www.instagram.com/chaengrang_/",
			MainImage:    "https://image.pollinations.ai/prompt/kpop%20idol%20long%20black%20hair%20stage%20outfit%20charismatic?width=800&height=1000&nologo=true&seed=707",
			GalleryImages: []GalleryItem{
				{URL: "https://image.pollinations.ai/prompt/kpop%20idol%20laughing%20variety%20show%20casual?width=800&height=1000&nologo=true&seed=808", Likes: 22815, Comments: 203},
				{URL: "https://image.pollinations.ai/prompt/kpop%20idol%20mirror%20selfie%20trendy%20fashion?width=800&height=1000&nologo=true&seed=909", Likes: 17462, Comments: 96},
			},
			Tags: []string{"VarietyAce", "AllRounder", "ComedyCharacter", "Visuals"},
			Info: PersonInfo{
				Birthdate:   "2000-05-14",
				Height:      "169cm",
				MBTI:        "ISFP",
				Hobbies:     []string{"Gaming", "Working out", "Variety shows"},
				Description: "Mood maker off stage, powerhouse on it. The gap between the comedy character and the stage presence is the whole appeal.",
			},
		},
		{
			ID:           "3",
			Name:         "Asa",
			MainCategory: MainCategoryCelebrity,
			SubCategory:  SubCategoryKPopGroup,
			GroupName:    "BABYMONSTER",
			InstagramURL: "https://www.instagram.com/babymonster_ygofficial/",
			MainImage:    "https://image.pollinations.ai/prompt/kpop%20idol%20rapper%20cool%20vibe%20black%20outfit?width=800&height=1000&nologo=true&seed=1010",
			GalleryImages: []GalleryItem{
				{URL: "https://image.pollinations.ai/prompt/kpop%20idol%20rapping%20on%20stage%20microphone?width=800&height=1000&nologo=true&seed=1111", Likes: 39120, Comments: 441},
				{URL: "https://image.pollinations.ai/prompt/kpop%20idol%20practice%20room%20mirror%20selfie%20hip%20hop?width=800&height=1000&nologo=true&seed=1212", Likes: 25601, Comments: 287},
			},
			Tags: []string{"MonsterRapper", "GoldenMaknaeLine", "Swag", "Prodigy"},
			Info: PersonInfo{
				Birthdate:   "2006-04-17",
				Height:      "Undisclosed",
				MBTI:        "ENFP",
				Hobbies:     []string{"Dancing", "Writing lyrics", "Beat making"},
				Description: "All-rounder ace: rapid-fire rap, clean lines, and writing credits on top. A finished idol before debut even settled.",
			},
		},
	}
	return seed
}
