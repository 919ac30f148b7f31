package shopify

const cartFragment = `
fragment CartFragment on Cart {
  id
  checkoutUrl
  totalQuantity
  cost {
    totalAmount { amount currencyCode }
    subtotalAmount { amount currencyCode }
  }
  lines(first: 100) {
    edges {
      node {
        id
        quantity
        merchandise {
          ... on ProductVariant {
            id
            title
            image { url altText }
            price { amount currencyCode }
            product {
              id
              title
              handle
              productType
              description
              descriptionHtml
              featuredImage { url altText }
              media(first: 1) {
                edges {
                  node {
                    mediaContentType
                    ... on MediaImage { image { url altText } }
                    ... on Video { sources { url mimeType } }
                    ... on ExternalVideo { embedUrl }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}
`

const cartCreateMutation = `
mutation cartCreate($input: CartInput!, $country: CountryCode!, $language: LanguageCode!)
@inContext(country: $country, language: $language) {
  cartCreate(input: $input) {
    cart { ...CartFragment }
    userErrors { field message }
  }
}
` + cartFragment

const cartLinesAddMutation = `
mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!, $country: CountryCode!, $language: LanguageCode!)
@inContext(country: $country, language: $language) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { ...CartFragment }
    userErrors { field message }
  }
}
` + cartFragment

const cartLinesUpdateMutation = `
mutation cartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!, $country: CountryCode!, $language: LanguageCode!)
@inContext(country: $country, language: $language) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart { ...CartFragment }
    userErrors { field message }
  }
}
` + cartFragment

const cartLinesRemoveMutation = `
mutation cartLinesRemove($cartId: ID!, $lineIds: [ID!]!, $country: CountryCode!, $language: LanguageCode!)
@inContext(country: $country, language: $language) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { ...CartFragment }
    userErrors { field message }
  }
}
` + cartFragment

const getCartQuery = `
query getCart($cartId: ID!, $country: CountryCode!, $language: LanguageCode!)
@inContext(country: $country, language: $language) {
  cart(id: $cartId) { ...CartFragment }
}
` + cartFragment

// checkoutCartMutation creates a throwaway cart only to obtain a checkout URL.
const checkoutCartMutation = `
mutation cartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart {
      id
      checkoutUrl
    }
    userErrors { field message }
  }
}
`

const marketsQuery = `
query Markets {
  markets(first: 100) {
    nodes {
      name
      handle
      webPresence {
        rootUrls { locale url }
      }
      currencySettings {
        baseCurrency { currencyCode }
      }
    }
  }
}
`
