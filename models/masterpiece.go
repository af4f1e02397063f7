package models

// Masterpiece 名画目录条目，只读
type Masterpiece struct {
	ID              string   `json:"id"`
	Artist          string   `json:"artist"`
	Title           string   `json:"title"`
	Tags            []string `json:"tags"`
	ImagePath       string   `json:"imagePath"`
	KidFriendlyFact string   `json:"kidFriendlyFact"`
	Biography       string   `json:"biography,omitempty"`
}

var masterpieces = []Masterpiece{
	{
		ID:              "van_gogh_starry",
		Artist:          "Vincent van Gogh",
		Title:           "The Starry Night",
		Tags:            []string{"blue", "swirls", "night", "stars", "yellow", "sky", "moon"},
		ImagePath:       "/assets/masterpieces/van_gogh_starry.jpg",
		KidFriendlyFact: "He loved painting the wind and stars like magic swirls!",
		Biography:       "Vincent van Gogh (1853-1890) was a Dutch artist famous for his bold, swirling brushstrokes and vibrant colors. He painted over 2,000 artworks in just 10 years! He loved nature and often painted outdoors, capturing the beauty of sunflowers, starry nights, and wheat fields.",
	},
	{
		ID:              "monet_waterlily",
		Artist:          "Claude Monet",
		Title:           "Water Lilies",
		Tags:            []string{"water", "flowers", "green", "pink", "blur", "garden", "peaceful"},
		ImagePath:       "/assets/masterpieces/monet_waterlily.jpg",
		KidFriendlyFact: "He painted the same garden hundreds of times!",
		Biography:       "Claude Monet (1840-1926) was a French painter who founded Impressionism. He loved painting nature and light! He had a beautiful garden with a pond full of water lilies that he painted over 250 times. His paintings look soft and dreamy, like looking through a magical mist.",
	},
	{
		ID:              "matisse_snail",
		Artist:          "Henri Matisse",
		Title:           "The Snail",
		Tags:            []string{"shapes", "colors", "abstract", "collage", "square", "colorful"},
		ImagePath:       "/assets/masterpieces/matisse_snail.jpg",
		KidFriendlyFact: "He 'painted' with scissors by cutting colorful paper!",
		Biography:       "Henri Matisse (1869-1954) was a French artist who loved bright, happy colors! When he got older and couldn't paint with a brush anymore, he invented a new way to make art - by cutting colored paper with scissors and arranging them in beautiful patterns. He called it 'painting with scissors!'",
	},
	{
		ID:              "picasso_musicians",
		Artist:          "Pablo Picasso",
		Title:           "Three Musicians",
		Tags:            []string{"geometric", "cubism", "funny", "music", "people", "shapes"},
		ImagePath:       "/assets/masterpieces/picasso_musicians.jpg",
		KidFriendlyFact: "He drew people using blocks and triangles!",
		Biography:       "Pablo Picasso (1881-1973) was a Spanish artist who created over 50,000 artworks! He invented a style called Cubism where he drew people and objects using geometric shapes like squares, triangles, and circles. He believed you could see all sides of something at once!",
	},
	{
		ID:              "kandinsky_circles",
		Artist:          "Wassily Kandinsky",
		Title:           "Squares with Concentric Circles",
		Tags:            []string{"circles", "colors", "rings", "abstract", "patterns"},
		ImagePath:       "/assets/masterpieces/kandinsky_circles.jpg",
		KidFriendlyFact: "He thought colors could make music!",
		Biography:       "Wassily Kandinsky (1866-1944) was a Russian artist who believed colors had sounds! He thought yellow sounded like a trumpet and blue like a cello. He created abstract art with colorful shapes and circles, trying to paint music and feelings instead of real things.",
	},
	{
		ID:              "mondrian_composition",
		Artist:          "Piet Mondrian",
		Title:           "Composition with Red, Blue and Yellow",
		Tags:            []string{"lines", "squares", "red", "blue", "yellow", "grid", "simple"},
		ImagePath:       "/assets/masterpieces/mondrian_composition.jpg",
		KidFriendlyFact: "He only used straight lines and 3 colors!",
		Biography:       "Piet Mondrian (1872-1944) was a Dutch artist who loved simplicity! He created beautiful art using only black lines, white backgrounds, and three primary colors: red, blue, and yellow. He believed this simple style could show perfect harmony and balance.",
	},
	{
		ID:              "pollock_no1",
		Artist:          "Jackson Pollock",
		Title:           "Number 1A",
		Tags:            []string{"splatter", "messy", "drip", "energy", "abstract", "movement"},
		ImagePath:       "/assets/masterpieces/pollock_no1.jpg",
		KidFriendlyFact: "He dripped and splashed paint on the floor!",
		Biography:       "Jackson Pollock (1912-1956) was an American artist famous for his 'drip paintings.' He laid huge canvases on the floor and walked around them, dripping, pouring, and flinging paint! He called it 'action painting' because his whole body moved like a dance while creating art.",
	},
	{
		ID:              "miro_sun",
		Artist:          "Joan Miró",
		Title:           "The Sun",
		Tags:            []string{"sun", "bright", "simple", "happy", "colorful", "playful"},
		ImagePath:       "/assets/masterpieces/miro_sun.jpg",
		KidFriendlyFact: "He painted like a happy kid playing!",
		Biography:       "Joan Miró (1893-1983) was a Spanish artist who kept the playful spirit of childhood in his art! He used simple shapes, bright colors, and magical symbols like stars, moons, and birds. His paintings look joyful and dreamlike, full of wonder and imagination.",
	},
	{
		ID:              "klimt_tree",
		Artist:          "Gustav Klimt",
		Title:           "The Tree of Life",
		Tags:            []string{"gold", "swirls", "tree", "decorative", "patterns"},
		ImagePath:       "/assets/masterpieces/klimt_tree.jpg",
		KidFriendlyFact: "He used real gold in his paintings!",
		Biography:       "Gustav Klimt (1862-1918) was an Austrian artist who loved decorative patterns and REAL GOLD! He created shimmering, magical paintings by mixing gold leaf with his paints. His artworks look like precious treasures with swirling patterns and beautiful designs.",
	},
	{
		ID:              "hokusai_wave",
		Artist:          "Katsushika Hokusai",
		Title:           "The Great Wave",
		Tags:            []string{"wave", "blue", "water", "ocean", "mountain", "japan"},
		ImagePath:       "/assets/masterpieces/hokusai_wave.jpg",
		KidFriendlyFact: "This wave is more famous than most movie stars!",
		Biography:       "Katsushika Hokusai (1760-1849) was a Japanese artist who created one of the world's most famous images: The Great Wave! He made beautiful woodblock prints showing Japanese landscapes and nature. He was so dedicated that he created over 30,000 artworks in his lifetime!",
	},
	{
		ID:              "warhol_soup",
		Artist:          "Andy Warhol",
		Title:           "Campbell's Soup Cans",
		Tags:            []string{"pop art", "repeat", "food", "colorful", "simple", "fun"},
		ImagePath:       "/assets/masterpieces/warhol_soup.jpg",
		KidFriendlyFact: "He made everyday things like soup cans into art!",
		Biography:       "Andy Warhol (1928-1987) was an American artist who turned ordinary everyday objects into famous art! He painted soup cans, soda bottles, and celebrities using bright colors and repeated patterns. He showed that art could be about the fun, colorful things we see every day.",
	},
	{
		ID:              "rousseau_jungle",
		Artist:          "Henri Rousseau",
		Title:           "Tiger in a Tropical Storm",
		Tags:            []string{"jungle", "animals", "green", "plants", "tiger", "nature"},
		ImagePath:       "/assets/masterpieces/rousseau_jungle.jpg",
		KidFriendlyFact: "He never saw a real jungle but painted it from his dreams!",
		Biography:       "Henri Rousseau (1844-1910) was a French artist who painted magical jungle scenes even though he never left France! He visited botanical gardens and zoos, then used his imagination to create lush, dreamlike jungles full of exotic plants and wild animals. He taught himself to paint!",
	},
	{
		ID:              "chagall_village",
		Artist:          "Marc Chagall",
		Title:           "I and the Village",
		Tags:            []string{"dreamy", "floating", "animals", "colorful", "fantasy"},
		ImagePath:       "/assets/masterpieces/chagall_village.jpg",
		KidFriendlyFact: "His paintings are like colorful dreams!",
		Biography:       "Marc Chagall (1887-1985) was a Russian-French artist who painted magical, dreamlike scenes! In his paintings, people and animals float in the sky, love fills the air, and memories mix with imagination. His art is full of bright colors and represents the beauty of dreams and memories.",
	},
	{
		ID:              "dali_clocks",
		Artist:          "Salvador Dalí",
		Title:           "The Persistence of Memory",
		Tags:            []string{"melting", "weird", "clocks", "surreal", "desert"},
		ImagePath:       "/assets/masterpieces/dali_clocks.jpg",
		KidFriendlyFact: "He painted clocks that melt like cheese!",
		Biography:       "Salvador Dalí (1904-1989) was a Spanish artist famous for painting weird, dreamlike scenes! He created 'Surrealist' art where impossible things happen - like melting clocks! He had a wild imagination and a funny mustache. He believed dreams and imagination were as important as reality.",
	},
	{
		ID:              "seurat_sunday",
		Artist:          "Georges Seurat",
		Title:           "A Sunday Afternoon",
		Tags:            []string{"dots", "park", "people", "pointillism", "colorful"},
		ImagePath:       "/assets/masterpieces/seurat_sunday.jpg",
		KidFriendlyFact: "He made pictures using only tiny dots of color!",
		Biography:       "Georges Seurat (1859-1891) was a French artist who invented a technique called Pointillism! Instead of painting normal brush strokes, he made entire pictures using thousands of tiny colored dots. When you step back, the dots blend together to create beautiful scenes!",
	},
	{
		ID:              "klee_castle",
		Artist:          "Paul Klee",
		Title:           "Castle and Sun",
		Tags:            []string{"castle", "geometric", "simple", "colorful", "childlike"},
		ImagePath:       "/assets/masterpieces/klee_castle.jpg",
		KidFriendlyFact: "His paintings look like magical kid drawings!",
		Biography:       "Paul Klee (1879-1940) was a Swiss-German artist who created over 9,000 artworks! He loved using simple shapes, bright colors, and playful lines. His art often looks like magical children's drawings mixed with music - he was also a talented violinist!",
	},
	{
		ID:              "okeefe_flower",
		Artist:          "Georgia O'Keeffe",
		Title:           "Red Poppy",
		Tags:            []string{"flower", "red", "close-up", "big", "nature"},
		ImagePath:       "/assets/masterpieces/okeefe_flower.jpg",
		KidFriendlyFact: "She painted flowers SO BIG they fill the whole canvas!",
		Biography:       "Georgia O'Keeffe (1887-1986) was an American artist called the 'Mother of American Modernism!' She painted enormous, close-up views of flowers, making tiny petals look huge and magical. She also loved painting the deserts and mountains of New Mexico where she lived.",
	},
	{
		ID:              "magritte_pipe",
		Artist:          "René Magritte",
		Title:           "The Treachery of Images",
		Tags:            []string{"pipe", "words", "mysterious", "simple", "thinking"},
		ImagePath:       "/assets/masterpieces/magritte_pipe.jpg",
		KidFriendlyFact: "He painted a pipe and wrote 'This is not a pipe'!",
		Biography:       "René Magritte (1898-1967) was a Belgian artist who made people think about reality! He painted realistic objects in strange, impossible situations. His famous pipe painting with words 'This is not a pipe' makes you think: you can't actually smoke a picture of a pipe!",
	},
	{
		ID:              "rothko_orange",
		Artist:          "Mark Rothko",
		Title:           "Orange and Yellow",
		Tags:            []string{"blocks", "colors", "simple", "calm", "abstract"},
		ImagePath:       "/assets/masterpieces/rothko_orange.jpg",
		KidFriendlyFact: "He painted huge blocks of color that make you feel emotions!",
		Biography:       "Mark Rothko (1903-1970) was an American artist who believed colors could make people feel deep emotions! He painted huge canvases with soft, glowing blocks of color. He wanted people to stand close to his paintings and feel peace, joy, sadness, or wonder from the colors alone.",
	},
	{
		ID:              "haring_figures",
		Artist:          "Keith Haring",
		Title:           "Dancing Figures",
		Tags:            []string{"people", "dancing", "black", "white", "movement", "fun"},
		ImagePath:       "/assets/masterpieces/haring_figures.jpg",
		KidFriendlyFact: "He drew simple stick figures full of energy and dance!",
		Biography:       "Keith Haring (1958-1990) was an American artist known for his bold, simple figures full of energy! He started by drawing in New York City subways with chalk. His art features dancing people, barking dogs, and radiating hearts - all bursting with movement and joy!",
	},
}

var masterpieceIndex = func() map[string]int {
	idx := make(map[string]int, len(masterpieces))
	for i, m := range masterpieces {
		idx[m.ID] = i
	}
	return idx
}()

// Catalog 返回目录副本，调用方修改不会影响全局数据
func Catalog() []Masterpiece {
	out := make([]Masterpiece, len(masterpieces))
	for i, m := range masterpieces {
		m.Tags = append([]string(nil), m.Tags...)
		out[i] = m
	}
	return out
}

func FindMasterpiece(id string) (Masterpiece, bool) {
	i, ok := masterpieceIndex[id]
	if !ok {
		return Masterpiece{}, false
	}
	m := masterpieces[i]
	m.Tags = append([]string(nil), m.Tags...)
	return m, true
}
