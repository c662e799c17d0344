package voices

func s3Manifest(id string) string {
	return "s3://voice-cloning-zero-shot/" + id + "/original/manifest.json"
}

var playAIVoices = []Voice{
	{"Angelo", s3Manifest("baf1ef41-36b6-428c-9bdf-50ba54682bd8"), "US", "M", "Young", "Conversational"},
	{"Arsenio", s3Manifest("65977f5e-a22a-4b36-861b-ecede19bdd65"), "US African American", "M", "Middle", "Conversational"},
	{"Cillian", s3Manifest("1591b954-8760-41a9-bc58-9176a68c5726"), "Irish", "M", "Middle", "Conversational"},
	{"Timo", s3Manifest("677a4ae3-252f-476e-85ce-eeed68e85951"), "US", "M", "Middle", "Conversational"},
	{"Dexter", s3Manifest("b27bc13e-996f-4841-b584-4d35801aea98"), "US", "M", "Middle", "Conversational"},
	{"Miles", s3Manifest("29dd9a52-bd32-4a6e-bff1-bbb98dcc286a"), "US African American", "M", "Young", "Conversational"},
	{"Briggs", s3Manifest("71cdb799-1e03-41c6-8a05-f7cd55134b0b"), "US Southern (Oklahoma)", "M", "Old", "Conversational"},
	{"Deedee", s3Manifest("e040bd1b-f190-4bdb-83f0-75ef85b18f84"), "US African American", "F", "Middle", "Conversational"},
	{"Nia", s3Manifest("831bd330-85c6-4333-b2b4-10c476ea3491"), "US", "F", "Young", "Conversational"},
	{"Inara", s3Manifest("adb83b67-8d75-48ff-ad4d-a0840d231ef1"), "US African American", "F", "Middle", "Conversational"},
	{"Constanza", s3Manifest("b0aca4d7-1738-4848-a80b-307ac44a7298"), "US Latin American", "F", "Young", "Conversational"},
	{"Gideon", s3Manifest("5a3a1168-7793-4b2c-8f90-aff2b5232131"), "British", "M", "Old", "Narrative"},
	{"Casper", s3Manifest("1bbc6986-fadf-4bd8-98aa-b86fed0476e9"), "US", "M", "Middle", "Narrative"},
	{"Mitch", s3Manifest("c14e50f2-c5e3-47d1-8c45-fa4b67803d19"), "Australian", "M", "Middle", "Narrative"},
	{"Ava", s3Manifest("50381567-ff7b-46d2-bfdc-a9584a85e08d"), "Australian", "F", "Middle", "Narrative"},
}

// playHTVoices holds the stock PlayHT voice used by the client SDK examples.
// Other PlayHT voices are passed through by their s3:// id.
var playHTVoices = []Voice{
	{"female-cs", "s3://voice-cloning-zero-shot/d9ff78ba-d016-47f6-b0ef-dd630f59414e/female-cs/manifest.json", "US", "F", "Adult", "Conversational"},
}

// PlayAI returns the Play.ai voice catalog.
func PlayAI() *Catalog {
	return mustCatalog(playAIVoices)
}

// PlayHT returns the PlayHT stock voice catalog.
func PlayHT() *Catalog {
	return mustCatalog(playHTVoices)
}

func mustCatalog(vs []Voice) *Catalog {
	c, err := NewCatalog(vs...)
	if err != nil {
		panic(err)
	}
	return c
}
