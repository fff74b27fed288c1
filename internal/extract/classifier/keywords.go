package classifier

// Keyword dictionaries for BESS detection, transcribed from the rule
// system's German planning/permitting vocabulary.

var PlanningTermsStrong = []string{
	"bebauungsplan",
	"b-plan",
	"bauleitplanung",
	"baugb",
	"flaechennutzungsplan",
	"flächennutzungsplan",
	"fnp",
	"vorhabenbezogener bebauungsplan",
	"vbp",
}

var PlanningStepTerms = []string{
	"aufstellungsbeschluss",
	"beschluss zur aufstellung",
	"beschlussfassung zur aufstellung",
	"gemäß § 2 abs. 1 baugb",
	"gemaess § 2 abs. 1 baugb",
	"§ 2 abs. 1 baugb",
	"fruehzeitige beteiligung",
	"frühzeitige beteiligung",
	"§ 3 abs. 1 baugb",
	"§ 4 abs. 1 baugb",
	"oeffentliche auslegung",
	"öffentliche auslegung",
	"auslegung der unterlagen",
	"§ 3 abs. 2 baugb",
	"§ 4 abs. 2 baugb",
	"satzungsbeschluss",
	"als satzung beschlossen",
	"bekanntmachung des satzungsbeschlusses",
	"inkrafttreten",
	"tritt in kraft",
	"§ 10 baugb",
}

var PlanningSupportTerms = []string{
	"geltungsbereich",
	"planzeichnung",
	"begruendung",
	"begründung",
	"umweltbericht",
	"umweltpruefung",
	"umweltprüfung",
	"abgrenzung",
	"plangebiet",
	"staedtebaulicher vertrag",
	"städtebaulicher vertrag",
}

var PermitTermsStrong = []string{
	"bauvorbescheid",
	"antrag auf bauvorbescheid",
	"vorbescheid",
	"baugenehmigung",
	"bauantrag",
	"genehmigung nach",
	"gemeindliches einvernehmen",
	"einvernehmen gemaess § 36 baugb",
	"§ 36 baugb",
	"stellungnahme der gemeinde",
	"einvernehmen erteilen",
	"einvernehmen versagen",
	"bauvoranfrage",
	"bauvorantrag",
	"kenntnisnahme",
	"antrag auf errichtung",
	"standortgemeinde",
}

var LegalBasisTerms = []string{
	"§ 35 baugb",
	"aussenbereich",
	"außenbereich",
	"privilegiertes vorhaben",
	"§ 34 baugb",
	"innenbereich",
	"§ 36 baugb",
}

var PermitDocContextTerms = []string{
	"beschlussvorlage",
	"sitzungsvorlage",
	"niederschrift",
	"protokoll",
	"tagesordnung",
	"bauausschuss",
	"hauptausschuss",
	"gemeindevertretung",
	"stadtverordnetenversammlung",
	"ortsbeirat",
}

var BESSTermsExplicit = []string{
	"batteriespeicher",
	"batterie-speicher",
	"energiespeicher",
	"stromspeicher",
	"grossspeicher",
	"großspeicher",
	"bess",
	"speicheranlage",
	"speicherpark",
	"speicherkraftwerk",
}

// StrongBESSTerms is the subset of BESSTermsExplicit the rule system
// treats as unambiguous (excludes the medium/ambiguous terms
// "speicheranlage", "speicherpark", "speicherkraftwerk").
var StrongBESSTerms = []string{
	"batteriespeicher", "batterie-speicher", "energiespeicher",
	"stromspeicher", "grossspeicher", "großspeicher", "bess",
}

var MediumBESSTerms = []string{"speicheranlage", "speicherpark", "speicherkraftwerk"}

var BESSTermsContainerGrid = []string{
	"containeranlage",
	"speichercontainer",
	"wechselrichter",
	"trafostation",
	"trafostationen",
	"transformator",
	"umspannwerk",
	"netzanschluss",
	"mittelspannung",
	"hochspannung",
	"anschluss an das stromnetz",
	"netzverknuepfungspunkt",
	"netzverknüpfungspunkt",
	"anlage zur energiespeicherung",
}

var EnergyContextTerms = []string{
	"photovoltaik",
	"pv",
	"solarpark",
	"windenergie",
	"energieerzeugung",
	"energieversorgung",
	"strom",
	"netzdienlich",
	"netzdienlichkeit",
	"regelenergie",
	"spitzenlast",
	"erneuerbare energien",
}

var ZoningTerms = []string{
	"sondergebiet",
	"so ",
	"so energie",
	"sondergebiet energie",
	"industriegebiet",
	"gi",
	"gewerbegebiet",
	"ge",
	"flaeche fuer versorgungsanlagen",
	"fläche für versorgungsanlagen",
	"technische anlagen",
	"anlagen zur energieversorgung",
	"versorgung",
}

var ParcelTerms = []string{
	"gemarkung",
	"flur",
	"flurstueck",
	"flurstück",
	"flurstuecke",
	"flurstücke",
	"lageplan",
	"adresse",
	"strasse",
	"straße",
	"koordinaten",
}

var NegativeStorageTerms = []string{
	"regenrueckhaltebecken",
	"regenrückhaltebecken",
	"wasserbehaelter",
	"wasserbehälter",
	"loeschwasser",
	"löschwasser",
	"waermespeicher",
	"wärmespeicher",
	"kaeltespeicher",
	"kältespeicher",
	"gaslager",
	"gasspeicher",
	"muell",
	"abfall",
	"lagerhalle",
	"lagerung",
	"speisekammer",
}

var NegativeUnrelatedTerms = []string{
	"datenspeicher",
	"speicherstadt",
	"speicherkarte",
	"cloud",
}

func concatTerms(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

var negativeTerms = concatTerms(NegativeStorageTerms, NegativeUnrelatedTerms)
var procedureTerms = concatTerms(PlanningTermsStrong, PlanningStepTerms, PermitTermsStrong)
