package bridge

// Scripts run inside the game page. The page is a Vue app with a Pinia
// store; the API is same-origin, so fetch carries the session cookie.
// Scripts throw on transport failures and return the raw payload
// otherwise; all interpretation happens in Go.

const userStoreLookup = `
	const app = document.querySelector('#app');
	if (!app || !app.__vue_app__) return null;
	const pinia = app.__vue_app__._context.provides.pinia
		|| app.__vue_app__.config.globalProperties.$pinia;
	if (!pinia) return null;
	const store = pinia._s.get('user');
`

const readyScript = `() => {
	const app = document.querySelector('#app');
	return !!(app && app.__vue_app__);
}`

const authenticatedScript = `() => {` + userStoreLookup + `
	return !!(store && store.user && store.user.id);
}`

// bunkerScript returns raw kilogram figures
const bunkerScript = `() => {` + userStoreLookup + `
	if (!store || !store.user) return null;
	const u = store.user;
	const settings = store.userSettings || {};
	return {
		fuel: u.fuel || 0,
		co2: u.co2 || 0,
		cash: u.cash || 0,
		max_fuel: settings.max_fuel || null,
		max_co2: settings.max_co2 || null
	};
}`

const apiCall = `
	async function api(path, body) {
		const res = await fetch('https://shippingmanager.cc' + path, {
			method: 'POST',
			credentials: 'include',
			headers: { 'Content-Type': 'application/json' },
			body: JSON.stringify(body || {})
		});
		if (!res.ok && res.status >= 500) throw new Error(path + ' returned HTTP ' + res.status);
		return await res.json();
	}
`

const pricesScript = `async () => {` + apiCall + `
	const d = await api('/api/bunker/get-prices', {});
	return d.data || null;
}`

const fleetScript = `async () => {` + apiCall + `
	const d = await api('/api/vessel/get-all-user-vessels', { include_routes: true });
	return (d.data && d.data.user_vessels) ? d.data.user_vessels : [];
}`

// purchaseScript expects { path, amount } with amount in kilograms
const purchaseScript = `async (args) => {` + apiCall + `
	const d = await api(args.path, { amount: args.amount });
	return { ok: !!d.user, error: d.error || null };
}`

// departScript expects { user_vessel_id, speed, guards }
const departScript = `async (args) => {` + apiCall + `
	const d = await api('/api/route/depart', {
		user_vessel_id: args.user_vessel_id,
		speed: args.speed,
		guards: args.guards || 0,
		history: 0
	});
	return d;
}`

// Login form selectors on the landing page
const (
	loginEmailSelector    = `input[type="email"], input[name="email"]`
	loginPasswordSelector = `input[type="password"]`
	loginSubmitSelector   = `button[type="submit"]`
)

const (
	purchaseFuelPath = "/api/bunker/purchase-fuel"
	purchaseCO2Path  = "/api/bunker/purchase-co2"
)
