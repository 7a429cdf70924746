package services

import "github.com/pawpack/backend/internal/models"

// fallbackGuidance is served whenever generated guidance is unavailable.
var fallbackGuidance = map[models.HazardType][]string{
	models.HazardToxicBait: {
		"Keep your dog on a short leash in the affected area",
		"Do not let your dog pick up or sniff food found on the ground",
		"Consider a basket muzzle for dogs that scavenge",
		"Contact a vet immediately if your dog shows vomiting, drooling or tremors",
		"Report suspicious bait to local authorities",
	},
	models.HazardToxicPlant: {
		"Keep your dog away from unfamiliar plants and mushrooms",
		"Stay on marked paths in the affected area",
		"Check your dog's mouth if you see it chewing vegetation",
		"Call a vet or poison helpline if you suspect ingestion",
	},
	models.HazardAlgaeBloom: {
		"Do not let your dog swim in or drink from the affected water",
		"Rinse your dog with clean water if it has been in contact with the water",
		"Bring fresh drinking water on walks",
		"Seek emergency veterinary care for weakness, vomiting or seizures",
	},
	models.HazardWildlife: {
		"Keep your dog leashed and close to you",
		"Avoid dawn and dusk walks in the affected area",
		"Do not let your dog chase or approach wild animals",
		"Check your dog for bites or scratches after walks",
	},
	models.HazardExtremeHeat: {
		"Walk your dog early in the morning or late in the evening",
		"Test pavement with your hand before walking on it",
		"Always carry fresh water and offer it often",
		"Never leave your dog in a parked car",
		"Watch for heavy panting, drooling or lethargy and cool your dog down immediately",
	},
	models.HazardDiseaseOutbreak: {
		"Avoid dog parks and shared water bowls in the affected area",
		"Check that your dog's vaccinations are up to date",
		"Keep your dog from sniffing other dogs' waste",
		"Contact your vet if your dog shows coughing, diarrhea or fever",
	},
	models.HazardTraffic: {
		"Keep your dog on a short leash near roads",
		"Use reflective gear or a light during low-visibility walks",
		"Choose a quieter route while the hazard persists",
		"Make sure your dog's ID tag and microchip details are current",
	},
	models.HazardDogTheft: {
		"Never leave your dog tied up unattended outside shops",
		"Vary your walking routes and times",
		"Make sure your dog is microchipped with current contact details",
		"Avoid sharing your dog's location publicly on social media",
		"Report suspicious activity to the police",
	},
	models.HazardAggressiveDog: {
		"Avoid the reported area or cross the street when possible",
		"Keep your dog leashed and under close control",
		"Stay calm and do not run if approached by an aggressive dog",
		"Report incidents to local animal control",
	},
	models.HazardHazardousWaste: {
		"Keep your dog away from the contaminated area",
		"Wipe your dog's paws after walks nearby",
		"Do not let your dog drink from puddles in the area",
		"Contact a vet if your dog shows skin irritation or vomiting",
	},
}

var defaultFallbackGuidance = []string{
	"Keep your dog on a leash in the affected area",
	"Stay alert and avoid the reported location if possible",
	"Contact your vet if your dog shows unusual symptoms",
	"Share updates with your local dog community",
}

// FallbackGuidance returns the static guidance for a hazard type, or the generic list
// for unknown types. The result is a copy and never empty.
func FallbackGuidance(hazard models.HazardType) []string {
	items, ok := fallbackGuidance[hazard]
	if !ok || len(items) == 0 {
		items = defaultFallbackGuidance
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}
