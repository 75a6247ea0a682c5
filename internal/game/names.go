package game

import "math/rand"

var (
	adjectives = []string{
		"Agile", "Bold", "Brave", "Bright", "Clever", "Cosmic", "Curious", "Daring",
		"Dizzy", "Electric", "Fearless", "Fiery", "Funky", "Gentle", "Glowing", "Golden",
		"Happy", "Jolly", "Lucky", "Mighty", "Nimble", "Quick", "Radiant", "Shiny",
		"Silent", "Sneaky", "Speedy", "Sunny", "Swift", "Wild", "Witty", "Zesty",
	}
	animals = []string{
		"Alpacas", "Badgers", "Beavers", "Bison", "Camels", "Cheetahs", "Dolphins", "Eagles",
		"Falcons", "Ferrets", "Foxes", "Geckos", "Hedgehogs", "Herons", "Koalas", "Lemurs",
		"Lynxes", "Meerkats", "Moose", "Narwhals", "Otters", "Owls", "Pandas", "Penguins",
		"Puffins", "Ravens", "Sheep", "Squirrels", "Tigers", "Turtles", "Walruses", "Wombats",
	}
)

// TeamName returns a random "Adjective Animals" name.
func TeamName(r *rand.Rand) string {
	return adjectives[r.Intn(len(adjectives))] + " " + animals[r.Intn(len(animals))]
}
