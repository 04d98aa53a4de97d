package taxreport

import "strings"

// indianStates maps ISO 3166-2:IN subdivision codes to their names
var indianStates = map[string]string{
	"AN": "Andaman and Nicobar Islands",
	"AP": "Andhra Pradesh",
	"AR": "Arunachal Pradesh",
	"AS": "Assam",
	"BR": "Bihar",
	"CH": "Chandigarh",
	"CG": "Chhattisgarh",
	"DH": "Dadra and Nagar Haveli and Daman and Diu",
	"DL": "Delhi",
	"GA": "Goa",
	"GJ": "Gujarat",
	"HR": "Haryana",
	"HP": "Himachal Pradesh",
	"JK": "Jammu and Kashmir",
	"JH": "Jharkhand",
	"KA": "Karnataka",
	"KL": "Kerala",
	"LA": "Ladakh",
	"LD": "Lakshadweep",
	"MP": "Madhya Pradesh",
	"MH": "Maharashtra",
	"MN": "Manipur",
	"ML": "Meghalaya",
	"MZ": "Mizoram",
	"NL": "Nagaland",
	"OD": "Odisha",
	"PY": "Puducherry",
	"PB": "Punjab",
	"RJ": "Rajasthan",
	"SK": "Sikkim",
	"TN": "Tamil Nadu",
	"TS": "Telangana",
	"TR": "Tripura",
	"UP": "Uttar Pradesh",
	"UK": "Uttarakhand",
	"WB": "West Bengal",
}

// Superseded codes still emitted by IP geolocation databases
var indianStateAliases = map[string]string{
	"CT": "CG",
	"DN": "DH",
	"DD": "DH",
	"OR": "OD",
	"TG": "TS",
	"UT": "UK",
}

var indianStateCodesByName = func() map[string]string {
	byName := make(map[string]string, len(indianStates)+4)
	for code, name := range indianStates {
		byName[strings.ToUpper(name)] = code
	}
	byName["ORISSA"] = "OD"
	byName["PONDICHERRY"] = "PY"
	byName["NCT OF DELHI"] = "DL"
	byName["UTTARANCHAL"] = "UK"
	return byName
}()

// NormalizeIndianState returns the canonical state code for a code or name.
// The second result is false when the value is empty or not an Indian state.
func NormalizeIndianState(value string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(value))
	if key == "" {
		return "", false
	}
	if _, ok := indianStates[key]; ok {
		return key, true
	}
	if code, ok := indianStateAliases[key]; ok {
		return code, true
	}
	if code, ok := indianStateCodesByName[key]; ok {
		return code, true
	}
	return "", false
}
