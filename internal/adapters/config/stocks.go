package config

// DefaultStocks is the NSE F&O universe processed when STOCKS is unset.
var DefaultStocks = []string{
	"ABB", "ABCAPITAL", "ADANIENSOL", "ADANIENT", "ADANIGREEN", "ADANIPORTS", "ALKEM", "AMBER", "AMBUJACEM", "ANGELONE",
	"APLAPOLLO", "APOLLOHOSP", "ASHOKLEY", "ASIANPAINT", "AINT", "ASTRAL", "AUBANK", "AUROPHARMA", "AXISBANK", "BAJAJFINSV", "BAJFINANCE",
	"BANDHANBNK", "BANKBARODA", "BANKINDIA", "BDL", "BEL", "BHARATFORG", "BHARTIARTL", "BHEL", "BIOCON", "BLUESTARCO",
	"BOSCHLTD", "BPCL", "BRITANNIA", "BSE", "CAMS", "CANBK", "CDSL", "CGPOWER", "CIPLA", "COALINDIA",
	"COFORGE", "COLPAL", "CONCOR", "CROMPTON", "CUMMINSIND", "CYIENT", "DABUR", "DALBHARAT", "DELHIVERY", "DIVISLAB",
	"DIXON", "DLF", "DMART", "DRREDDY", "EICHERMOT", "ETERNAL", "EXIDEIND", "FEDERALBNK", "FORTIS", "GAIL",
	"GLENMARK", "GMRAIRPORT", "GODREJCP", "GODREJPROP", "GRASIM", "HAL", "HAVELLS", "HCLTECH", "HDFCAMC", "HDFCBANK",
	"HDFCLIFE", "HEROMOTOCO", "HFCL", "HINDALCO", "HINDPETRO", "HINDUNILVR", "HINDZINC", "HUDCO", "ICICIBANK", "ICICIGI",
	"IDEA", "IDFCFIRSTB", "IEX", "IGL", "IIFL", "INDHOTEL", "INDIANB", "INDIGO", "INDUSINDBK", "INDUSTOWER",
	"INFY", "INOXWIND", "IOC", "IRCTC", "IREDA", "IRFC", "ITC", "JINDALSTEL", "JIOFIN", "JSWENERGY",
	"JSWSTEEL", "JUBLFOOD", "KALYANKJIL", "KAYNES", "KEI", "KFINTECH", "KOTAKBANK", "KPITTECH", "LAURUSLABS", "LICHSGFIN",
	"LICI", "LODHA", "LT", "LTF", "LTIM", "LUPIN", "MANAPPURAM", "MANKIND", "MARICO", "MARUTI",
	"MAXHEALTH", "MAZDOCK", "MCX", "MFSL", "MM", "MPHASIS", "MUTHOOTFIN", "NAUKRI", "NATIONALUM", "NBCC",
	"NCC", "NESTLEIND", "NHPC", "NMDC", "NTPC", "NUVAMA", "NYKAA", "OBEROIRLTY", "OFSS", "OIL",
	"ONGC", "ONE", "PAGEIND", "PATANJALI", "PAYTM", "PETRONET", "PFC", "PGEL", "PHOENIXLTD", "PIDILITIND",
	"PIIND", "PNB", "PNBHOUSING", "POLICYBZR", "POLYCAB", "POWERGRID", "PPLPHARMA", "PRESTIGE", "RBLBANK", "RECLTD",
	"RELIANCE", "RVNL", "SAIL", "SBICARD", "SBILIFE", "SBIN", "SHREECEM", "SHRIRAMFIN", "SIEMENS", "SOLARINDS",
	"SONACOMS", "SRF", "SUZLON", "SUNPHARMA", "SUPREMEIND", "SYNGENE", "TATACHEM", "TATACONSUM", "TATAELXSI", "TATAMOTORS",
	"TATAPOWER", "TATASTEEL", "TATATECH", "TCS", "TECHM", "TIINDIA", "TITAGARH", "TITAN", "TORNTPHARM", "TORNTPOWER",
	"TRENT", "TVSMOTOR", "ULTRACEMCO", "UNIONBANK", "UNITDSPR", "UNOMINDA", "UPL", "VBL", "VEDL", "VOLTAS",
	"WIPRO", "YESBANK", "ZYDUSLIFE",
}
